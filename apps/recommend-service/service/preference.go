package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/logger"
)

// GetPreferences 读取用户偏好快照
// 优先走Redis hash镜像，未命中时回源数据库并回填
func (s *Service) GetPreferences(ctx context.Context, userID int64) (map[string]float64, error) {
	if userID <= 0 {
		return nil, model.ErrNotAuthenticated
	}

	cacheKey := model.GetPreferenceKey(userID)
	if s.redis != nil {
		if cached, err := s.redis.HGetAll(ctx, cacheKey); err == nil && len(cached) > 0 {
			scores := make(map[string]float64, len(cached))
			valid := true
			for tag, raw := range cached {
				score, parseErr := strconv.ParseFloat(raw, 64)
				if parseErr != nil {
					valid = false
					break
				}
				scores[tag] = score
			}
			if valid {
				return scores, nil
			}
			// 镜像数据损坏，丢弃后回源
			s.redis.Del(ctx, cacheKey)
		}
	}

	scores, err := s.prefDAO.GetUserScores(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil && len(scores) > 0 {
		fields := make(map[string]interface{}, len(scores))
		for tag, score := range scores {
			fields[tag] = score
		}
		if err := s.redis.HMSet(ctx, cacheKey, fields); err == nil {
			s.redis.Expire(ctx, cacheKey, time.Duration(model.CacheExpirePreference)*time.Second)
		}
	}

	return scores, nil
}

// applyPreferenceDelta 对(user, tag)应用一次偏好增量
// 数据库是权威存储，必须先成功；Redis镜像同步失败时删除镜像等待回源
func (s *Service) applyPreferenceDelta(ctx context.Context, userID int64, tag string, delta float64) error {
	if err := s.prefDAO.ApplyDelta(ctx, userID, tag, delta); err != nil {
		return err
	}

	if s.redis != nil {
		cacheKey := model.GetPreferenceKey(userID)
		if exists, err := s.redis.Exists(ctx, cacheKey); err == nil && exists > 0 {
			if _, err := s.redis.HIncrByFloat(ctx, cacheKey, tag, delta); err != nil {
				s.logger.Warn(ctx, "Failed to update preference mirror, dropping it",
					logger.F("userID", userID),
					logger.F("tag", tag),
					logger.F("error", err.Error()))
				s.redis.Del(ctx, cacheKey)
			}
		}
	}

	return nil
}

// RebuildPreferences 从事件流全量重建用户偏好
// rate事件的权重就是该次评分的增量，所以只回放事件流即可复原账本；
// 分页回放后整体替换偏好表并失效镜像
func (s *Service) RebuildPreferences(ctx context.Context, userID int64) (map[string]float64, error) {
	if userID <= 0 {
		return nil, model.ErrNotAuthenticated
	}

	scores := make(map[string]float64)

	var afterID int64
	for {
		events, err := s.eventDAO.ListUserEventsAfter(ctx, userID, afterID, model.RebuildPageSize)
		if err != nil {
			return nil, fmt.Errorf("回放互动事件失败: %v", err)
		}
		if len(events) == 0 {
			break
		}

		for _, event := range events {
			tags, err := s.catalogDAO.GetTargetTags(ctx, event.TargetID)
			if err != nil {
				// 目标可能已下架，跳过这条事件
				if !errors.Is(err, model.ErrNotFound) {
					s.logger.Warn(ctx, "Failed to resolve tags during rebuild",
						logger.F("targetID", event.TargetID),
						logger.F("error", err.Error()))
				}
				continue
			}
			for _, tag := range tags {
				scores[tag] += event.Weight
			}
		}

		afterID = events[len(events)-1].ID
		if len(events) < model.RebuildPageSize {
			break
		}
	}

	if err := s.prefDAO.ReplaceUserScores(ctx, userID, scores); err != nil {
		return nil, fmt.Errorf("%w: replace preference scores: %v", model.ErrPersistence, err)
	}

	if s.redis != nil {
		s.redis.Del(ctx, model.GetPreferenceKey(userID))
	}

	s.logger.Info(ctx, "Preferences rebuilt",
		logger.F("userID", userID),
		logger.F("tagCount", len(scores)))

	return scores, nil
}

// EraseUser 隐私清除：删除用户在本服务的全部数据
// 各存储独立删除，单个失败不阻止其余删除，错误合并返回
func (s *Service) EraseUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return model.ErrNotAuthenticated
	}

	var errs []error

	if err := s.eventDAO.DeleteUserEvents(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("delete events: %v", err))
	}
	if err := s.prefDAO.DeleteUserScores(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("delete preference scores: %v", err))
	}
	if err := s.ratingDAO.DeleteUserRatings(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("delete ratings: %v", err))
	}
	if s.searchDAO != nil {
		if err := s.searchDAO.DeleteUserInteractions(ctx, userID); err != nil {
			errs = append(errs, fmt.Errorf("delete indexed interactions: %v", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Del(ctx, model.GetPreferenceKey(userID)); err != nil {
			errs = append(errs, fmt.Errorf("delete preference mirror: %v", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Info(ctx, "User data erased", logger.F("userID", userID))
	return nil
}
