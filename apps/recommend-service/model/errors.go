package model

import "errors"

// 错误分类
// 持久化写入路径的错误必须向调用方透传，派生副作用路径的错误只记日志
var (
	// ErrNotAuthenticated 请求没有可用的调用方身份
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound 点查询没有命中任何记录
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRating 评分不在[1,5]的整数范围内
	ErrInvalidRating = errors.New("invalid rating value")

	// ErrUnknownInteractionKind 互动类型不在权重表中
	ErrUnknownInteractionKind = errors.New("unknown interaction kind")

	// ErrPersistence 持久化写入失败
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedGatewayResponse 推荐引擎返回的结构违反契约（listings不是数组）
	ErrMalformedGatewayResponse = errors.New("malformed gateway response")

	// ErrGatewayUnavailable 推荐引擎不可达（网络错误、超时、非2xx）
	ErrGatewayUnavailable = errors.New("recommendation gateway unavailable")

	// ErrInvalidFeedContext 推荐场景不合法
	ErrInvalidFeedContext = errors.New("invalid feed context")
)
