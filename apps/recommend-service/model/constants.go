package model

// 默认配置
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// 互动类型
const (
	InteractionKindView       = "view"        // 浏览
	InteractionKindClick      = "click"       // 点击
	InteractionKindMessage    = "message"     // 私信房东
	InteractionKindShare      = "share"       // 分享
	InteractionKindSave       = "save"        // 收藏
	InteractionKindBook       = "book"        // 预订
	InteractionKindSwipeLeft  = "swipe_left"  // 左滑（不感兴趣）
	InteractionKindSwipeRight = "swipe_right" // 右滑（感兴趣）
	InteractionKindRate       = "rate"        // 评分（仅用于事件流，权重单独计算）
)

// InteractionWeights 互动权重表
// 新增互动类型只需要在这里加一行，不要在调用点散落权重值
var InteractionWeights = map[string]float64{
	InteractionKindView:       1,
	InteractionKindClick:      2,
	InteractionKindMessage:    4,
	InteractionKindShare:      5,
	InteractionKindSave:       3,
	InteractionKindBook:       10,
	InteractionKindSwipeLeft:  -2,
	InteractionKindSwipeRight: 1,
}

// RatingWeight 评分权重系数，delta = (rating - 3) * RatingWeight
const RatingWeight = 1.0

// 评分取值范围
const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// 推荐场景
const (
	FeedContextFYP          = "fyp"           // 首页推荐流
	FeedContextExplore      = "explore"       // 探索页
	FeedContextAfterBooking = "after_booking" // 预订完成后
	FeedContextTrip         = "trip"          // 行程页
)

// 有效的推荐场景列表
var ValidFeedContexts = []string{
	FeedContextFYP,
	FeedContextExplore,
	FeedContextAfterBooking,
	FeedContextTrip,
}

// Redis缓存键前缀
const (
	CacheKeyPreference  = "recommend:pref"   // 用户偏好缓存
	CacheKeyRatingStats = "recommend:rating" // 评分统计缓存
)

// 缓存过期时间（秒）
const (
	CacheExpirePreference  = 600 // 偏好缓存10分钟
	CacheExpireRatingStats = 300 // 评分统计缓存5分钟
)

// Kafka主题
const (
	TopicInteractionEvents = "interaction-events"
	TopicRatingEvents      = "rating-events"
)

// Elasticsearch索引
const (
	IndexInteractionHistory = "interaction_history"
)

// 批量操作限制
const (
	MaxBatchSize = 100 // 批量上报最大数量
)

// 偏好重建每页读取的事件数
const RebuildPageSize = 500

// ValidateFeedContext 验证推荐场景
func ValidateFeedContext(feedContext string) bool {
	for _, c := range ValidFeedContexts {
		if c == feedContext {
			return true
		}
	}
	return false
}

// ValidateInteractionKind 验证互动类型是否在权重表中
func ValidateInteractionKind(kind string) bool {
	_, ok := InteractionWeights[kind]
	return ok
}
