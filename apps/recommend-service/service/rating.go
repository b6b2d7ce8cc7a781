package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/logger"
)

// RateTarget 对目标评分，返回评分记录和重算后的聚合
// 重复评分收敛为更新；聚合同步重算并随结果返回，偏好增量异步应用
func (s *Service) RateTarget(ctx context.Context, userID, targetID, tripID int64, value int, comment string) (*model.Rating, *model.RatingStats, error) {
	if userID <= 0 {
		return nil, nil, model.ErrNotAuthenticated
	}
	if targetID <= 0 {
		return nil, nil, fmt.Errorf("目标ID无效: %d", targetID)
	}
	if value < model.MinRatingValue || value > model.MaxRatingValue {
		return nil, nil, fmt.Errorf("%w: %d", model.ErrInvalidRating, value)
	}

	rating := &model.Rating{
		UserID:   userID,
		TargetID: targetID,
		Value:    value,
		Comment:  comment,
		TripID:   tripID,
	}

	if err := s.ratingDAO.UpsertRating(ctx, rating); err != nil {
		return nil, nil, err
	}

	// 聚合重算失败不影响评分本身，下一次评分会再算
	stats, err := s.ratingDAO.RecomputeStats(ctx, targetID)
	if err != nil {
		s.logger.Error(ctx, "Failed to recompute rating stats",
			logger.F("targetID", targetID),
			logger.F("error", err.Error()))
		stats = &model.RatingStats{TargetID: targetID}
	}
	if s.redis != nil {
		s.redis.Del(ctx, model.GetRatingStatsKey(targetID))
	}

	go s.applyRatingSideEffects(context.Background(), rating)

	return rating, stats, nil
}

// GetTargetStats 查询目标的评分聚合，带缓存
func (s *Service) GetTargetStats(ctx context.Context, targetID int64) (*model.RatingStats, error) {
	if targetID <= 0 {
		return nil, fmt.Errorf("目标ID无效: %d", targetID)
	}

	cacheKey := model.GetRatingStatsKey(targetID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey); err == nil && cached != "" {
			var stats model.RatingStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.ratingDAO.GetStats(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.redis.Set(ctx, cacheKey, string(data), time.Duration(model.CacheExpireRatingStats)*time.Second)
		}
	}

	return stats, nil
}

// ListUserRatings 查询用户的全部评分
func (s *Service) ListUserRatings(ctx context.Context, userID int64) ([]*model.Rating, error) {
	if userID <= 0 {
		return nil, model.ErrNotAuthenticated
	}
	return s.ratingDAO.GetUserRatings(ctx, userID)
}

// GetUserRating 查询用户对目标的评分
func (s *Service) GetUserRating(ctx context.Context, userID, targetID int64) (*model.Rating, error) {
	if userID <= 0 {
		return nil, model.ErrNotAuthenticated
	}
	if targetID <= 0 {
		return nil, fmt.Errorf("目标ID无效: %d", targetID)
	}
	return s.ratingDAO.GetRating(ctx, userID, targetID)
}

// applyRatingSideEffects 执行评分的派生副作用
// 每次评分调用独立贡献(value-3)*系数的增量，重复评分按次累加而不是修正上一次；
// rate事件带着本次增量入事件流，回放事件流即可复原账本
func (s *Service) applyRatingSideEffects(ctx context.Context, rating *model.Rating) {
	delta := RatingDelta(rating.Value)

	event := &model.InteractionEvent{
		ID:        s.idGen.Generate(),
		UserID:    rating.UserID,
		TargetID:  rating.TargetID,
		ParentID:  rating.TripID,
		Kind:      model.InteractionKindRate,
		Weight:    delta,
		CreatedAt: time.Now(),
	}
	if err := s.eventDAO.CreateEvent(ctx, event); err != nil {
		s.logger.Error(ctx, "Failed to record rating event",
			logger.F("userID", rating.UserID),
			logger.F("targetID", rating.TargetID),
			logger.F("error", err.Error()))
	}

	if delta != 0 && s.catalogDAO != nil {
		tags, err := s.catalogDAO.GetTargetTags(ctx, rating.TargetID)
		if err != nil {
			s.logger.Error(ctx, "Failed to resolve target tags for rating",
				logger.F("targetID", rating.TargetID),
				logger.F("error", err.Error()))
		}
		for _, tag := range tags {
			if err := s.applyPreferenceDelta(ctx, rating.UserID, tag, delta); err != nil {
				s.logger.Error(ctx, "Failed to apply rating preference delta",
					logger.F("userID", rating.UserID),
					logger.F("tag", tag),
					logger.F("error", err.Error()))
			}
		}
	}

	msg := &model.RatingEventMessage{
		UserID:    rating.UserID,
		TargetID:  rating.TargetID,
		Value:     rating.Value,
		Delta:     delta,
		Timestamp: time.Now(),
	}
	key := fmt.Sprintf("%d:%d", rating.UserID, rating.TargetID)
	s.publishEvent(ctx, model.TopicRatingEvents, key, msg)
}
