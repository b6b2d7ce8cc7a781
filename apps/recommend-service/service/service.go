package service

import (
	"context"
	"encoding/json"
	"fmt"

	"triphub/apps/recommend-service/dao"
	"triphub/apps/recommend-service/model"
	"triphub/pkg/kafka"
	"triphub/pkg/logger"
	"triphub/pkg/redis"
	"triphub/pkg/snowflake"
)

// Engine 外部推荐引擎客户端接口
type Engine interface {
	// RequestRecommendations 请求推荐列表
	RequestRecommendations(ctx context.Context, userID int64, feedContext string, preferences map[string]float64, params *model.FeedParams) ([]*model.RecommendationCard, *model.FeedMetadata, error)
	// NotifyInteraction 互动事件通知，尽力而为，失败只记日志
	NotifyInteraction(ctx context.Context, msg *model.InteractionEventMessage)
}

// Service 推荐服务
type Service struct {
	eventDAO   dao.EventDAO
	prefDAO    dao.PreferenceDAO
	ratingDAO  dao.RatingDAO
	catalogDAO dao.CatalogDAO
	searchDAO  dao.SearchDAO
	redis      *redis.RedisClient
	kafka      *kafka.Producer
	engine     Engine
	idGen      *snowflake.Snowflake
	logger     logger.Logger
}

// NewService 创建推荐服务实例
func NewService(
	eventDAO dao.EventDAO,
	prefDAO dao.PreferenceDAO,
	ratingDAO dao.RatingDAO,
	catalogDAO dao.CatalogDAO,
	searchDAO dao.SearchDAO,
	redisClient *redis.RedisClient,
	kafkaProducer *kafka.Producer,
	engine Engine,
	idGen *snowflake.Snowflake,
	log logger.Logger,
) *Service {
	return &Service{
		eventDAO:   eventDAO,
		prefDAO:    prefDAO,
		ratingDAO:  ratingDAO,
		catalogDAO: catalogDAO,
		searchDAO:  searchDAO,
		redis:      redisClient,
		kafka:      kafkaProducer,
		engine:     engine,
		idGen:      idGen,
		logger:     log,
	}
}

// GetFeed 获取推荐列表
// 偏好快照随请求一起发给引擎，引擎不可达时把错误透传给调用方降级
func (s *Service) GetFeed(ctx context.Context, userID int64, feedContext string, params *model.FeedParams) ([]*model.RecommendationCard, *model.FeedMetadata, error) {
	if userID <= 0 {
		return nil, nil, model.ErrNotAuthenticated
	}
	if !model.ValidateFeedContext(feedContext) {
		return nil, nil, fmt.Errorf("%w: %s", model.ErrInvalidFeedContext, feedContext)
	}
	if params == nil {
		params = &model.FeedParams{}
	}
	if params.Limit <= 0 {
		params.Limit = model.DefaultPageSize
	}
	if params.Limit > model.MaxPageSize {
		params.Limit = model.MaxPageSize
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	// 偏好读取失败不阻塞推荐，引擎可以用空偏好出冷启动结果
	preferences, err := s.GetPreferences(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "Failed to load preferences for feed",
			logger.F("userID", userID),
			logger.F("error", err.Error()))
		preferences = map[string]float64{}
	}

	return s.engine.RequestRecommendations(ctx, userID, feedContext, preferences, params)
}

// publishEvent 发布事件到消息队列，异步发送，失败只记日志
func (s *Service) publishEvent(ctx context.Context, topic, key string, event interface{}) {
	if s.kafka == nil {
		return
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		s.logger.Error(ctx, "Failed to marshal event",
			logger.F("topic", topic),
			logger.F("error", err.Error()))
		return
	}

	go func() {
		if err := s.kafka.SendMessage(topic, []byte(key), eventData); err != nil {
			s.logger.Error(context.Background(), "Failed to send event",
				logger.F("topic", topic),
				logger.F("key", key),
				logger.F("error", err.Error()))
		}
	}()
}
