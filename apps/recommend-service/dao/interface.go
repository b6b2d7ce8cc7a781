package dao

import (
	"context"

	"triphub/apps/recommend-service/model"
)

// EventDAO 互动事件数据访问接口（只追加）
type EventDAO interface {
	CreateEvent(ctx context.Context, event *model.InteractionEvent) error
	GetUserEvents(ctx context.Context, query *model.EventQuery) ([]*model.InteractionEvent, int64, error)
	// ListUserEventsAfter 按ID升序分页遍历，用于偏好重建
	ListUserEventsAfter(ctx context.Context, userID, afterID int64, limit int) ([]*model.InteractionEvent, error)
	DeleteUserEvents(ctx context.Context, userID int64) error
}

// PreferenceDAO 偏好分数数据访问接口
// ApplyDelta是唯一允许的写路径，必须是存储层的单条原子增量
type PreferenceDAO interface {
	ApplyDelta(ctx context.Context, userID int64, tag string, delta float64) error
	GetUserScores(ctx context.Context, userID int64) (map[string]float64, error)
	ReplaceUserScores(ctx context.Context, userID int64, scores map[string]float64) error
	DeleteUserScores(ctx context.Context, userID int64) error
}

// RatingDAO 评分数据访问接口
type RatingDAO interface {
	UpsertRating(ctx context.Context, rating *model.Rating) error
	GetRating(ctx context.Context, userID, targetID int64) (*model.Rating, error)
	GetUserRatings(ctx context.Context, userID int64) ([]*model.Rating, error)
	RecomputeStats(ctx context.Context, targetID int64) (*model.RatingStats, error)
	GetStats(ctx context.Context, targetID int64) (*model.RatingStats, error)
	DeleteUserRatings(ctx context.Context, userID int64) error
}

// CatalogDAO 目标目录查询接口（只读，目录归属内容服务）
type CatalogDAO interface {
	GetTarget(ctx context.Context, targetID int64) (*model.CatalogTarget, error)
	GetTargetTags(ctx context.Context, targetID int64) ([]string, error)
}

// SearchDAO 互动历史索引接口（ES，用于审计和导出）
type SearchDAO interface {
	IndexInteraction(ctx context.Context, msg *model.InteractionEventMessage) error
	SearchUserInteractions(ctx context.Context, userID int64, kind string, from, size int) ([]*model.InteractionEventMessage, int64, error)
	DeleteUserInteractions(ctx context.Context, userID int64) error
}
