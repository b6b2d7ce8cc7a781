package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"triphub/apps/recommend-service/model"
	"triphub/apps/recommend-service/service"
	"triphub/pkg/logger"
)

// HTTPHandler HTTP处理器
type HTTPHandler struct {
	svc    *service.Service
	logger logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(svc *service.Service, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: log,
	}
}

// RegisterRoutes 注册HTTP路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/recommend")
	{
		// 互动上报
		api.POST("/interaction", h.RecordInteraction)            // 记录互动
		api.POST("/interaction/batch", h.RecordInteractionBatch) // 批量记录互动
		api.POST("/interactions/query", h.QueryInteractions)     // 查询互动历史
		api.POST("/interactions/export", h.ExportInteractions)   // 从索引导出互动历史

		// 评分
		api.POST("/rating", h.RateTarget)           // 评分
		api.POST("/rating/stats", h.GetTargetStats) // 评分聚合查询
		api.GET("/rating", h.GetUserRating)         // 查询我对目标的评分
		api.GET("/ratings", h.ListUserRatings)      // 我的评分列表

		// 偏好
		api.GET("/preferences", h.GetPreferences)              // 查询偏好
		api.POST("/preferences/rebuild", h.RebuildPreferences) // 全量重建偏好

		// 推荐
		api.POST("/feed", h.GetFeed) // 推荐列表

		// 隐私
		api.DELETE("/user", h.EraseUser) // 清除用户数据
	}
}

// currentUserID 从上下文取认证中间件写入的用户ID
// 身份只来自令牌，不信任请求体里的user_id
func (h *HTTPHandler) currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := v.(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// respondError 统一错误响应，按错误分类映射状态码
func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidRating),
		errors.Is(err, model.ErrUnknownInteractionKind),
		errors.Is(err, model.ErrInvalidFeedContext):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrGatewayUnavailable),
		errors.Is(err, model.ErrMalformedGatewayResponse):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": err.Error(),
	})
}

// RecordInteractionRequest 记录互动请求
type RecordInteractionRequest struct {
	TargetID int64  `json:"target_id" binding:"required"`
	ParentID int64  `json:"parent_id"`
	Kind     string `json:"kind" binding:"required"`
	Metadata string `json:"metadata"`
}

// RecordInteraction 记录互动
func (h *HTTPHandler) RecordInteraction(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	var req RecordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	event, err := h.svc.RecordInteraction(c.Request.Context(), userID, req.TargetID, req.ParentID, req.Kind, req.Metadata)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to record interaction",
			logger.F("error", err.Error()),
			logger.F("userID", userID),
			logger.F("targetID", req.TargetID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "记录成功",
		"data":    event,
	})
}

// RecordInteractionBatchRequest 批量记录互动请求
type RecordInteractionBatchRequest struct {
	Items []*model.BatchRecordItem `json:"items" binding:"required"`
}

// RecordInteractionBatch 批量记录互动
func (h *HTTPHandler) RecordInteractionBatch(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	var req RecordInteractionBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	result, err := h.svc.RecordInteractionBatch(c.Request.Context(), userID, req.Items)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to record interaction batch",
			logger.F("error", err.Error()),
			logger.F("userID", userID),
			logger.F("count", len(req.Items)))
		h.respondError(c, err)
		return
	}

	message := "记录成功"
	if !result.AllPersisted() {
		message = "部分记录成功"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    result,
	})
}

// QueryInteractionsRequest 互动历史查询请求
type QueryInteractionsRequest struct {
	Kind     string `json:"kind"`
	Page     int32  `json:"page"`
	PageSize int32  `json:"page_size"`
}

// QueryInteractions 查询互动历史
func (h *HTTPHandler) QueryInteractions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	var req QueryInteractionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	events, total, err := h.svc.GetInteractionHistory(c.Request.Context(), userID, req.Kind, req.Page, req.PageSize)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to query interactions",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "查询成功",
		"data": gin.H{
			"events": events,
			"total":  total,
		},
	})
}

// ExportInteractions 从搜索索引导出互动历史（审计用）
// 数据来自异步索引，相比数据库查询可能有秒级延迟
func (h *HTTPHandler) ExportInteractions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	var req QueryInteractionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	events, total, err := h.svc.SearchInteractionHistory(c.Request.Context(), userID, req.Kind, req.Page, req.PageSize)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to export interactions",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "查询成功",
		"data": gin.H{
			"events": events,
			"total":  total,
		},
	})
}

// RateTargetRequest 评分请求
type RateTargetRequest struct {
	TargetID int64  `json:"target_id" binding:"required"`
	Value    int    `json:"value" binding:"required"`
	Comment  string `json:"comment"`
	TripID   int64  `json:"trip_id"`
}

// RateTarget 评分
func (h *HTTPHandler) RateTarget(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	var req RateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	rating, stats, err := h.svc.RateTarget(c.Request.Context(), userID, req.TargetID, req.TripID, req.Value, req.Comment)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to rate target",
			logger.F("error", err.Error()),
			logger.F("userID", userID),
			logger.F("targetID", req.TargetID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "评分成功",
		"data": gin.H{
			"rating": rating,
			"stats":  stats,
		},
	})
}

// GetTargetStatsRequest 评分聚合查询请求
type GetTargetStatsRequest struct {
	TargetID int64 `json:"target_id" binding:"required"`
}

// GetTargetStats 查询目标的评分聚合
func (h *HTTPHandler) GetTargetStats(c *gin.Context) {
	var req GetTargetStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	stats, err := h.svc.GetTargetStats(c.Request.Context(), req.TargetID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get rating stats",
			logger.F("error", err.Error()),
			logger.F("targetID", req.TargetID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "查询成功",
		"data":    stats,
	})
}

// GetUserRating 查询当前用户对某个目标的评分
func (h *HTTPHandler) GetUserRating(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	targetID, err := strconv.ParseInt(c.Query("target_id"), 10, 64)
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: target_id无效",
		})
		return
	}

	rating, err := h.svc.GetUserRating(c.Request.Context(), userID, targetID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			h.logger.Error(c.Request.Context(), "Failed to get user rating",
				logger.F("error", err.Error()),
				logger.F("userID", userID),
				logger.F("targetID", targetID))
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "查询成功",
		"data":    rating,
	})
}

// ListUserRatings 查询当前用户的全部评分
func (h *HTTPHandler) ListUserRatings(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	ratings, err := h.svc.ListUserRatings(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to list user ratings",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "查询成功",
		"data":    ratings,
	})
}

// GetPreferences 查询当前用户的偏好快照
func (h *HTTPHandler) GetPreferences(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	scores, err := h.svc.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get preferences",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "查询成功",
		"data":    scores,
	})
}

// RebuildPreferences 全量重建当前用户的偏好
func (h *HTTPHandler) RebuildPreferences(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	scores, err := h.svc.RebuildPreferences(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to rebuild preferences",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "重建成功",
		"data":    scores,
	})
}

// GetFeedRequest 推荐请求
type GetFeedRequest struct {
	Context string            `json:"context" binding:"required"`
	Params  *model.FeedParams `json:"params"`
}

// GetFeed 获取推荐列表
// 引擎不可达时降级为空列表并打degraded标记，客户端不报错
func (h *HTTPHandler) GetFeed(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	var req GetFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	cards, metadata, err := h.svc.GetFeed(c.Request.Context(), userID, req.Context, req.Params)
	if err != nil {
		if errors.Is(err, model.ErrGatewayUnavailable) {
			h.logger.Warn(c.Request.Context(), "Recommendation engine unavailable, serving degraded feed",
				logger.F("userID", userID),
				logger.F("context", req.Context))
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": "推荐服务暂时不可用",
				"data": gin.H{
					"cards":    []*model.RecommendationCard{},
					"degraded": true,
				},
			})
			return
		}
		h.logger.Error(c.Request.Context(), "Failed to get feed",
			logger.F("error", err.Error()),
			logger.F("userID", userID),
			logger.F("context", req.Context))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "查询成功",
		"data": gin.H{
			"cards":    cards,
			"metadata": metadata,
			"degraded": false,
		},
	})
}

// EraseUser 清除当前用户在本服务的全部数据
func (h *HTTPHandler) EraseUser(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		h.respondError(c, model.ErrNotAuthenticated)
		return
	}

	if err := h.svc.EraseUser(c.Request.Context(), userID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to erase user data",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "清除成功",
	})
}
