package service

import (
	"context"
	"errors"
	"testing"

	"triphub/apps/recommend-service/model"
)

// TestGetFeed 测试推荐请求携带偏好快照并透传引擎结果
func TestGetFeed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.prefs.scores[100] = map[string]float64{"beach": 5}
	env.engine.cards = []*model.RecommendationCard{
		{TargetID: 200, Title: "海景别墅"},
		{TargetID: 201, Title: "市区公寓"},
	}

	cards, metadata, err := env.svc.GetFeed(ctx, 100, model.FeedContextFYP, nil)
	if err != nil {
		t.Fatalf("GetFeed 返回错误: %v", err)
	}
	if len(cards) != 2 {
		t.Errorf("推荐卡片数 = %d, 期望 2", len(cards))
	}
	if metadata.Context != model.FeedContextFYP {
		t.Errorf("metadata.Context = %q, 期望 %q", metadata.Context, model.FeedContextFYP)
	}

	env.engine.mu.Lock()
	defer env.engine.mu.Unlock()
	if env.engine.lastPref["beach"] != 5 {
		t.Errorf("引擎收到的偏好 = %v, 期望携带 beach=5", env.engine.lastPref)
	}
}

// TestGetFeedValidation 测试推荐场景与认证校验
func TestGetFeedValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, _, err := env.svc.GetFeed(ctx, 0, model.FeedContextFYP, nil); !errors.Is(err, model.ErrNotAuthenticated) {
		t.Errorf("未认证请求期望 ErrNotAuthenticated, 得到 %v", err)
	}
	if _, _, err := env.svc.GetFeed(ctx, 100, "homepage", nil); !errors.Is(err, model.ErrInvalidFeedContext) {
		t.Errorf("非法场景期望 ErrInvalidFeedContext, 得到 %v", err)
	}
}

// TestGetFeedEngineUnavailable 引擎不可达时错误透传给调用方
func TestGetFeedEngineUnavailable(t *testing.T) {
	env := newTestEnv()
	env.engine.err = model.ErrGatewayUnavailable

	_, _, err := env.svc.GetFeed(context.Background(), 100, model.FeedContextExplore, nil)
	if !errors.Is(err, model.ErrGatewayUnavailable) {
		t.Errorf("期望 ErrGatewayUnavailable, 得到 %v", err)
	}
}

// TestGetFeedParamClamping 分页参数超限时收敛到允许范围
func TestGetFeedParamClamping(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	params := &model.FeedParams{Limit: 10000, Page: -3}
	if _, _, err := env.svc.GetFeed(ctx, 100, model.FeedContextTrip, params); err != nil {
		t.Fatalf("GetFeed 返回错误: %v", err)
	}
	if params.Limit != model.MaxPageSize {
		t.Errorf("Limit = %d, 期望收敛到 %d", params.Limit, model.MaxPageSize)
	}
	if params.Page != 1 {
		t.Errorf("Page = %d, 期望收敛到 1", params.Page)
	}
}
