package model

import (
	"fmt"
	"time"
)

// InteractionEvent 互动事件表（只追加，除隐私清除外不修改不删除）
type InteractionEvent struct {
	ID        int64     `json:"id" gorm:"primaryKey"` // snowflake ID
	UserID    int64     `json:"user_id" gorm:"not null;index:idx_user_created"`
	TargetID  int64     `json:"target_id" gorm:"not null;index"`
	ParentID  int64     `json:"parent_id,omitempty"` // 可选的父实体（如行程ID）
	Kind      string    `json:"kind" gorm:"type:varchar(20);not null;index"`
	Weight    float64   `json:"weight" gorm:"not null"`
	Metadata  string    `json:"metadata" gorm:"type:text"` // JSON格式的元数据
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_user_created"`
}

// TableName .
func (InteractionEvent) TableName() string {
	return "interaction_events"
}

// PreferenceScore 偏好分数表，(user_id, tag)唯一
// score是所有delta的累加和，与应用顺序无关，只能通过原子增量更新
type PreferenceScore struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_user_tag"`
	Tag       string    `json:"tag" gorm:"type:varchar(64);not null;uniqueIndex:idx_user_tag"`
	Score     float64   `json:"score" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName .
func (PreferenceScore) TableName() string {
	return "preference_scores"
}

// Rating 评分表，(user_id, target_id)唯一，重复评分走更新
type Rating struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_user_target"`
	TargetID  int64     `json:"target_id" gorm:"not null;uniqueIndex:idx_user_target"`
	Value     int       `json:"value" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	TripID    int64     `json:"trip_id,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName .
func (Rating) TableName() string {
	return "ratings"
}

// RatingStats 评分聚合表（按目标维度缓存算术平均值）
type RatingStats struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TargetID    int64     `json:"target_id" gorm:"not null;uniqueIndex"`
	Average     float64   `json:"average" gorm:"not null;default:0"`
	RatingCount int64     `json:"rating_count" gorm:"not null;default:0"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName .
func (RatingStats) TableName() string {
	return "rating_stats"
}

// CatalogTarget 目录中的目标实体（房源/活动），只读，归属目录服务
type CatalogTarget struct {
	ID       int64    `bson:"_id" json:"id"`
	Title    string   `bson:"title" json:"title"`
	Category string   `bson:"category" json:"category"`
	Tags     []string `bson:"tags" json:"tags"`
	OwnerID  int64    `bson:"owner_id" json:"owner_id"`
	City     string   `bson:"city" json:"city"`
}

// AllTags 返回类目+标签的合并列表，作为偏好账本的键
func (t *CatalogTarget) AllTags() []string {
	tags := make([]string, 0, len(t.Tags)+1)
	if t.Category != "" {
		tags = append(tags, t.Category)
	}
	for _, tag := range t.Tags {
		if tag != "" && tag != t.Category {
			tags = append(tags, tag)
		}
	}
	return tags
}

// GeoPoint 地理坐标
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FeedParams 推荐请求的可选参数
type FeedParams struct {
	Location     *GeoPoint `json:"location,omitempty"`
	SeedTargetID int64     `json:"seed_target_id,omitempty"`
	TripID       int64     `json:"trip_id,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Page         int       `json:"page,omitempty"`
	ExcludeSeen  bool      `json:"exclude_seen,omitempty"`
}

// RecommendationCard 推荐卡片的固定结构
// 外部引擎响应缺失的字段一律归一化为零值，不允许出现未定义字段
type RecommendationCard struct {
	TargetID    int64             `json:"target_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Images      []string          `json:"images"`
	Price       float64           `json:"price"`
	Rating      float64           `json:"rating"`
	RatingCount int64             `json:"rating_count"`
	Location    GeoPoint          `json:"location"`
	City        string            `json:"city"`
	Amenities   []string          `json:"amenities"`
	Available   bool              `json:"available"`
	OwnerID     int64             `json:"owner_id"`
	Confidence  float64           `json:"confidence,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FeedMetadata 推荐响应的元数据
type FeedMetadata struct {
	Context     string    `json:"context"`
	GeneratedAt time.Time `json:"generated_at"`
	TotalCount  int64     `json:"total_count"`
	Page        int       `json:"page"`
	HasMore     bool      `json:"has_more"`
}

// EventQuery 互动历史查询参数
type EventQuery struct {
	UserID   int64
	Kind     string
	Page     int32
	PageSize int32
}

// BatchRecordItem 批量上报中的单条互动
type BatchRecordItem struct {
	TargetID int64  `json:"target_id"`
	Kind     string `json:"kind"`
	Metadata string `json:"metadata,omitempty"`
}

// BatchRecordResult 批量上报结果
// Persisted < Total 表示部分落库，与整体失败可区分
type BatchRecordResult struct {
	Total     int      `json:"total"`
	Persisted int      `json:"persisted"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// AllPersisted 是否全部落库成功
func (r *BatchRecordResult) AllPersisted() bool {
	return r.Failed == 0
}

// InteractionEventMessage 互动事件（用于消息队列和ES索引）
type InteractionEventMessage struct {
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	TargetID  int64     `json:"target_id"`
	ParentID  int64     `json:"parent_id,omitempty"`
	Kind      string    `json:"kind"`
	Weight    float64   `json:"weight"`
	Tags      []string  `json:"tags,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RatingEventMessage 评分事件（用于消息队列）
type RatingEventMessage struct {
	UserID    int64     `json:"user_id"`
	TargetID  int64     `json:"target_id"`
	Value     int       `json:"value"`
	Delta     float64   `json:"delta"`
	Timestamp time.Time `json:"timestamp"`
}

// GetPreferenceKey 生成用户偏好的缓存键
func GetPreferenceKey(userID int64) string {
	return fmt.Sprintf("%s:%d", CacheKeyPreference, userID)
}

// GetRatingStatsKey 生成评分统计的缓存键
func GetRatingStatsKey(targetID int64) string {
	return fmt.Sprintf("%s:%d", CacheKeyRatingStats, targetID)
}
