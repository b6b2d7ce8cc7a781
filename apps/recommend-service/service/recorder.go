package service

import (
	"context"
	"fmt"
	"time"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/logger"
)

// RecordInteraction 记录一次互动
// 事件落库是唯一的同步写，偏好更新、消息队列、引擎通知都是派生副作用，
// 在落库成功后异步执行，失败只记日志不回滚事件
func (s *Service) RecordInteraction(ctx context.Context, userID, targetID, parentID int64, kind, metadata string) (*model.InteractionEvent, error) {
	if userID <= 0 {
		return nil, model.ErrNotAuthenticated
	}
	if targetID <= 0 {
		return nil, fmt.Errorf("目标ID无效: %d", targetID)
	}

	weight, err := WeightOf(kind)
	if err != nil {
		return nil, err
	}

	event := &model.InteractionEvent{
		ID:        s.idGen.Generate(),
		UserID:    userID,
		TargetID:  targetID,
		ParentID:  parentID,
		Kind:      kind,
		Weight:    weight,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	if err := s.eventDAO.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	go s.applyInteractionSideEffects(context.Background(), event)

	return event, nil
}

// RecordInteractionBatch 批量记录互动
// 逐条落库，部分失败不影响其余条目，结果里区分落库数和失败数
func (s *Service) RecordInteractionBatch(ctx context.Context, userID int64, items []*model.BatchRecordItem) (*model.BatchRecordResult, error) {
	if userID <= 0 {
		return nil, model.ErrNotAuthenticated
	}
	if len(items) == 0 {
		return &model.BatchRecordResult{}, nil
	}
	if len(items) > model.MaxBatchSize {
		return nil, fmt.Errorf("批量上报数量超过限制: %d", model.MaxBatchSize)
	}

	result := &model.BatchRecordResult{Total: len(items)}
	for _, item := range items {
		_, err := s.RecordInteraction(ctx, userID, item.TargetID, 0, item.Kind, item.Metadata)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("target %d: %v", item.TargetID, err))
			continue
		}
		result.Persisted++
	}

	return result, nil
}

// GetInteractionHistory 查询用户互动历史
func (s *Service) GetInteractionHistory(ctx context.Context, userID int64, kind string, page, pageSize int32) ([]*model.InteractionEvent, int64, error) {
	if userID <= 0 {
		return nil, 0, model.ErrNotAuthenticated
	}
	if kind != "" && !model.ValidateInteractionKind(kind) && kind != model.InteractionKindRate {
		return nil, 0, fmt.Errorf("%w: %s", model.ErrUnknownInteractionKind, kind)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}

	query := &model.EventQuery{
		UserID:   userID,
		Kind:     kind,
		Page:     page,
		PageSize: pageSize,
	}
	return s.eventDAO.GetUserEvents(ctx, query)
}

// SearchInteractionHistory 从索引检索互动历史（审计和导出用）
func (s *Service) SearchInteractionHistory(ctx context.Context, userID int64, kind string, page, pageSize int32) ([]*model.InteractionEventMessage, int64, error) {
	if userID <= 0 {
		return nil, 0, model.ErrNotAuthenticated
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}

	from := int((page - 1) * pageSize)
	return s.searchDAO.SearchUserInteractions(ctx, userID, kind, from, int(pageSize))
}

// applyInteractionSideEffects 执行互动事件的派生副作用
func (s *Service) applyInteractionSideEffects(ctx context.Context, event *model.InteractionEvent) {
	// 目录查询失败时跳过偏好更新，事件流和引擎通知照常
	var tags []string
	if s.catalogDAO != nil {
		var err error
		tags, err = s.catalogDAO.GetTargetTags(ctx, event.TargetID)
		if err != nil {
			s.logger.Error(ctx, "Failed to resolve target tags",
				logger.F("targetID", event.TargetID),
				logger.F("eventID", event.ID),
				logger.F("error", err.Error()))
			tags = nil
		}
	}

	for _, tag := range tags {
		if err := s.applyPreferenceDelta(ctx, event.UserID, tag, event.Weight); err != nil {
			s.logger.Error(ctx, "Failed to apply preference delta",
				logger.F("userID", event.UserID),
				logger.F("tag", tag),
				logger.F("error", err.Error()))
		}
	}

	msg := &model.InteractionEventMessage{
		EventID:   event.ID,
		UserID:    event.UserID,
		TargetID:  event.TargetID,
		ParentID:  event.ParentID,
		Kind:      event.Kind,
		Weight:    event.Weight,
		Tags:      tags,
		Metadata:  event.Metadata,
		Timestamp: event.CreatedAt,
	}

	key := fmt.Sprintf("%d:%d:%s", event.UserID, event.TargetID, event.Kind)
	s.publishEvent(ctx, model.TopicInteractionEvents, key, msg)

	if s.engine != nil {
		s.engine.NotifyInteraction(ctx, msg)
	}
}
