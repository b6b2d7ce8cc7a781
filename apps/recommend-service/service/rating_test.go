package service

import (
	"context"
	"errors"
	"testing"

	"triphub/apps/recommend-service/model"
)

// TestRateTargetValidation 测试评分取值范围校验
func TestRateTargetValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for _, value := range []int{0, 6, -1, 100} {
		if _, _, err := env.svc.RateTarget(ctx, 100, 200, 0, value, ""); !errors.Is(err, model.ErrInvalidRating) {
			t.Errorf("RateTarget(value=%d) 期望 ErrInvalidRating, 得到 %v", value, err)
		}
	}
	if _, _, err := env.svc.RateTarget(ctx, 0, 200, 0, 4, ""); !errors.Is(err, model.ErrNotAuthenticated) {
		t.Errorf("未认证评分期望 ErrNotAuthenticated, 得到 %v", err)
	}
	if _, _, err := env.svc.RateTarget(ctx, 100, 0, 0, 4, ""); err == nil {
		t.Error("目标ID为0时期望报错")
	}
}

// TestRateTarget 测试评分落库与聚合同步重算
// 重算出的聚合直接随评分结果返回，不再二次查询
func TestRateTarget(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	rating, stats, err := env.svc.RateTarget(ctx, 100, 200, 0, 4, "不错的海景房")
	if err != nil {
		t.Fatalf("RateTarget 返回错误: %v", err)
	}
	if rating.Value != 4 || rating.Comment != "不错的海景房" {
		t.Errorf("评分记录 = %+v, 字段与输入不符", rating)
	}
	if stats == nil || stats.Average != 4 || stats.RatingCount != 1 {
		t.Errorf("返回聚合 = %+v, 期望 avg 4 count 1", stats)
	}
}

// TestRateTargetUpdatesExisting 重复评分收敛为更新，聚合跟随最新值
func TestRateTargetUpdatesExisting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, _, err := env.svc.RateTarget(ctx, 100, 200, 0, 5, ""); err != nil {
		t.Fatalf("首次评分返回错误: %v", err)
	}
	_, stats, err := env.svc.RateTarget(ctx, 100, 200, 0, 2, "降级了")
	if err != nil {
		t.Fatalf("重复评分返回错误: %v", err)
	}
	if stats.Average != 2 || stats.RatingCount != 1 {
		t.Errorf("返回聚合 = avg %v count %d, 期望 avg 2 count 1", stats.Average, stats.RatingCount)
	}

	stored, err := env.svc.GetUserRating(ctx, 100, 200)
	if err != nil {
		t.Fatalf("GetUserRating 返回错误: %v", err)
	}
	if stored.Value != 2 {
		t.Errorf("重复评分后存储值 = %d, 期望 2", stored.Value)
	}
}

// TestGetTargetStatsAbsent 无评分的目标返回零值聚合而不是报错
func TestGetTargetStatsAbsent(t *testing.T) {
	env := newTestEnv()

	stats, err := env.svc.GetTargetStats(context.Background(), 777)
	if err != nil {
		t.Fatalf("GetTargetStats 返回错误: %v", err)
	}
	if stats.Average != 0 || stats.RatingCount != 0 {
		t.Errorf("无评分目标聚合 = %+v, 期望零值", stats)
	}
}

// TestGetUserRatingNotFound 未评分时返回NotFound
func TestGetUserRatingNotFound(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.GetUserRating(context.Background(), 100, 200); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("期望 ErrNotFound, 得到 %v", err)
	}
}

// TestListUserRatings 只返回本用户的评分
func TestListUserRatings(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.ratings.ratings[ratingKey(100, 200)] = &model.Rating{UserID: 100, TargetID: 200, Value: 4}
	env.ratings.ratings[ratingKey(100, 201)] = &model.Rating{UserID: 100, TargetID: 201, Value: 2}
	env.ratings.ratings[ratingKey(101, 200)] = &model.Rating{UserID: 101, TargetID: 200, Value: 5}

	ratings, err := env.svc.ListUserRatings(ctx, 100)
	if err != nil {
		t.Fatalf("ListUserRatings 返回错误: %v", err)
	}
	if len(ratings) != 2 {
		t.Errorf("评分条数 = %d, 期望 2", len(ratings))
	}
}

// TestRatingSideEffects 测试评分副作用：rate事件入流，账本按次累加
// 每次评分独立贡献(value-3)的增量，改评不是对上一次的修正
// 直接同步执行副作用函数，避免依赖后台goroutine的时序
func TestRatingSideEffects(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.tags[200] = []string{"beach"}

	// 2分：delta = -1
	env.svc.applyRatingSideEffects(ctx, &model.Rating{UserID: 100, TargetID: 200, Value: 2})

	scores, _ := env.prefs.GetUserScores(ctx, 100)
	if scores["beach"] != -1 {
		t.Errorf("首次评分后 beach = %v, 期望 -1", scores["beach"])
	}

	events, total, _ := env.events.GetUserEvents(ctx, &model.EventQuery{UserID: 100, Kind: model.InteractionKindRate})
	if total != 1 || events[0].Weight != -1 {
		t.Errorf("rate事件 total=%d weight=%v, 期望 total=1 weight=-1", total, events[0].Weight)
	}

	// 改评4分：delta = +1，两次调用的净效果为0
	env.svc.applyRatingSideEffects(ctx, &model.Rating{UserID: 100, TargetID: 200, Value: 4})

	scores, _ = env.prefs.GetUserScores(ctx, 100)
	if scores["beach"] != 0 {
		t.Errorf("改评后 beach = %v, 期望 0", scores["beach"])
	}

	// 重复5分评两次：每次各贡献+2
	env.svc.applyRatingSideEffects(ctx, &model.Rating{UserID: 100, TargetID: 200, Value: 5})
	env.svc.applyRatingSideEffects(ctx, &model.Rating{UserID: 100, TargetID: 200, Value: 5})

	scores, _ = env.prefs.GetUserScores(ctx, 100)
	if scores["beach"] != 4 {
		t.Errorf("重复5分两次后 beach = %v, 期望 4", scores["beach"])
	}
}

// TestRatingSideEffectsNeutral 中性评分不产生偏好增量，但事件仍入流
func TestRatingSideEffectsNeutral(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.tags[200] = []string{"beach"}

	env.svc.applyRatingSideEffects(ctx, &model.Rating{UserID: 100, TargetID: 200, Value: 3})

	scores, _ := env.prefs.GetUserScores(ctx, 100)
	if len(scores) != 0 {
		t.Errorf("中性评分产生了偏好增量: %v", scores)
	}

	_, total, _ := env.events.GetUserEvents(ctx, &model.EventQuery{UserID: 100, Kind: model.InteractionKindRate})
	if total != 1 {
		t.Errorf("rate事件数 = %d, 期望 1", total)
	}
}
