package service

import (
	"context"
	"errors"
	"testing"

	"triphub/apps/recommend-service/model"
)

// TestRecordInteraction 测试互动事件落库与权重赋值
func TestRecordInteraction(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	event, err := env.svc.RecordInteraction(ctx, 100, 200, 0, model.InteractionKindBook, `{"source":"detail"}`)
	if err != nil {
		t.Fatalf("RecordInteraction 返回错误: %v", err)
	}
	if event.ID == 0 {
		t.Error("事件ID未生成")
	}
	if event.Weight != 10 {
		t.Errorf("book事件权重 = %v, 期望 10", event.Weight)
	}

	env.events.mu.Lock()
	persisted := len(env.events.events)
	env.events.mu.Unlock()
	if persisted != 1 {
		t.Errorf("落库事件数 = %d, 期望 1", persisted)
	}
}

// TestRecordInteractionValidation 测试参数校验，校验失败时不落库
func TestRecordInteractionValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.RecordInteraction(ctx, 0, 200, 0, model.InteractionKindView, ""); !errors.Is(err, model.ErrNotAuthenticated) {
		t.Errorf("未认证用户期望 ErrNotAuthenticated, 得到 %v", err)
	}
	if _, err := env.svc.RecordInteraction(ctx, 100, 0, 0, model.InteractionKindView, ""); err == nil {
		t.Error("目标ID为0时期望报错")
	}
	if _, err := env.svc.RecordInteraction(ctx, 100, 200, 0, "hover", ""); !errors.Is(err, model.ErrUnknownInteractionKind) {
		t.Errorf("未知互动类型期望 ErrUnknownInteractionKind, 得到 %v", err)
	}

	env.events.mu.Lock()
	persisted := len(env.events.events)
	env.events.mu.Unlock()
	if persisted != 0 {
		t.Errorf("校验失败后落库事件数 = %d, 期望 0", persisted)
	}
}

// TestRecordInteractionPersistenceFailure 落库失败时错误携带持久化错误类别
func TestRecordInteractionPersistenceFailure(t *testing.T) {
	env := newTestEnv()
	env.events.failCreate = true

	_, err := env.svc.RecordInteraction(context.Background(), 100, 200, 0, model.InteractionKindView, "")
	if !errors.Is(err, model.ErrPersistence) {
		t.Errorf("期望 ErrPersistence, 得到 %v", err)
	}
}

// TestRecordInteractionBatch 批量上报部分失败时区分落库数和失败数
func TestRecordInteractionBatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	items := []*model.BatchRecordItem{
		{TargetID: 200, Kind: model.InteractionKindView},
		{TargetID: 201, Kind: "hover"},
		{TargetID: 202, Kind: model.InteractionKindSave},
	}

	result, err := env.svc.RecordInteractionBatch(ctx, 100, items)
	if err != nil {
		t.Fatalf("RecordInteractionBatch 返回错误: %v", err)
	}
	if result.Total != 3 || result.Persisted != 2 || result.Failed != 1 {
		t.Errorf("批量结果 = %+v, 期望 Total=3 Persisted=2 Failed=1", result)
	}
	if result.AllPersisted() {
		t.Error("存在失败条目时 AllPersisted 应为 false")
	}
	if len(result.Errors) != 1 {
		t.Errorf("错误明细数 = %d, 期望 1", len(result.Errors))
	}
}

// TestRecordInteractionBatchLimits 测试批量上报的边界
func TestRecordInteractionBatchLimits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.RecordInteractionBatch(ctx, 100, nil)
	if err != nil || result.Total != 0 {
		t.Errorf("空批量期望零值结果, 得到 result=%+v err=%v", result, err)
	}

	oversized := make([]*model.BatchRecordItem, model.MaxBatchSize+1)
	for i := range oversized {
		oversized[i] = &model.BatchRecordItem{TargetID: int64(i + 1), Kind: model.InteractionKindView}
	}
	if _, err := env.svc.RecordInteractionBatch(ctx, 100, oversized); err == nil {
		t.Error("超过批量上限时期望报错")
	}
}

// TestInteractionSideEffects 测试互动副作用：标签偏好增量与引擎通知
// 直接同步执行副作用函数，避免依赖后台goroutine的时序
func TestInteractionSideEffects(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.tags[200] = []string{"beach", "villa"}

	event := &model.InteractionEvent{
		ID:       1,
		UserID:   100,
		TargetID: 200,
		Kind:     model.InteractionKindSave,
		Weight:   3,
	}
	env.svc.applyInteractionSideEffects(ctx, event)

	scores, _ := env.prefs.GetUserScores(ctx, 100)
	if scores["beach"] != 3 || scores["villa"] != 3 {
		t.Errorf("偏好增量 = %v, 期望 beach=3 villa=3", scores)
	}

	env.engine.mu.Lock()
	defer env.engine.mu.Unlock()
	if len(env.engine.notified) != 1 {
		t.Fatalf("引擎通知数 = %d, 期望 1", len(env.engine.notified))
	}
	if got := env.engine.notified[0]; got.EventID != 1 || len(got.Tags) != 2 {
		t.Errorf("通知内容 = %+v, 期望携带事件ID和标签", got)
	}
}

// TestInteractionSideEffectsTargetMissing 目标不在目录时跳过偏好更新，通知照常
func TestInteractionSideEffectsTargetMissing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	event := &model.InteractionEvent{
		ID:       2,
		UserID:   100,
		TargetID: 999,
		Kind:     model.InteractionKindView,
		Weight:   1,
	}
	env.svc.applyInteractionSideEffects(ctx, event)

	scores, _ := env.prefs.GetUserScores(ctx, 100)
	if len(scores) != 0 {
		t.Errorf("目标缺失时偏好应保持为空, 得到 %v", scores)
	}

	env.engine.mu.Lock()
	defer env.engine.mu.Unlock()
	if len(env.engine.notified) != 1 {
		t.Errorf("引擎通知数 = %d, 期望 1", len(env.engine.notified))
	}
}

// TestGetInteractionHistory 测试互动历史查询的参数校验与过滤
func TestGetInteractionHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.events.events = []*model.InteractionEvent{
		{ID: 1, UserID: 100, TargetID: 200, Kind: model.InteractionKindView},
		{ID: 2, UserID: 100, TargetID: 201, Kind: model.InteractionKindSave},
		{ID: 3, UserID: 101, TargetID: 200, Kind: model.InteractionKindView},
	}

	events, total, err := env.svc.GetInteractionHistory(ctx, 100, "", 1, 20)
	if err != nil {
		t.Fatalf("GetInteractionHistory 返回错误: %v", err)
	}
	if total != 2 || len(events) != 2 {
		t.Errorf("用户100的历史条数 = %d, 期望 2", total)
	}

	events, _, err = env.svc.GetInteractionHistory(ctx, 100, model.InteractionKindSave, 1, 20)
	if err != nil || len(events) != 1 {
		t.Errorf("按类型过滤后条数 = %d, 期望 1", len(events))
	}

	if _, _, err := env.svc.GetInteractionHistory(ctx, 100, "hover", 1, 20); !errors.Is(err, model.ErrUnknownInteractionKind) {
		t.Errorf("未知类型过滤期望 ErrUnknownInteractionKind, 得到 %v", err)
	}
	if _, _, err := env.svc.GetInteractionHistory(ctx, 0, "", 1, 20); !errors.Is(err, model.ErrNotAuthenticated) {
		t.Errorf("未认证查询期望 ErrNotAuthenticated, 得到 %v", err)
	}
}
