package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/logger"
)

// EngineClient 外部推荐引擎的HTTP客户端
type EngineClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewEngineClient 创建推荐引擎客户端
func NewEngineClient(baseURL string, timeout time.Duration, log logger.Logger) *EngineClient {
	return &EngineClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// engineRequest 发给引擎的请求结构
type engineRequest struct {
	RequestID   string             `json:"request_id"`
	UserID      int64              `json:"user_id"`
	Context     string             `json:"context"`
	Preferences map[string]float64 `json:"preferences"`
	Params      *model.FeedParams  `json:"params,omitempty"`
}

// engineResponse 引擎响应的外层结构
// listings先保留原始JSON，形状校验通过后再解码
type engineResponse struct {
	Listings   json.RawMessage `json:"listings"`
	TotalCount int64           `json:"total_count"`
	HasMore    bool            `json:"has_more"`
}

// engineListing 引擎返回的单条推荐，字段全部可选
type engineListing struct {
	TargetID    *int64            `json:"target_id"`
	ID          *int64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Images      []string          `json:"images"`
	Price       *float64          `json:"price"`
	Rating      *float64          `json:"rating"`
	RatingCount *int64            `json:"rating_count"`
	Location    *model.GeoPoint   `json:"location"`
	City        string            `json:"city"`
	Amenities   []string          `json:"amenities"`
	Available   *bool             `json:"available"`
	OwnerID     *int64            `json:"owner_id"`
	Confidence  *float64          `json:"confidence"`
	Explanation string            `json:"explanation"`
	Metadata    map[string]string `json:"metadata"`
}

// RequestRecommendations 请求推荐列表
// 网络错误、超时和非2xx都归为引擎不可达；响应结构违反契约单独报错，
// 两类错误调用方可以区分处理
func (c *EngineClient) RequestRecommendations(ctx context.Context, userID int64, feedContext string, preferences map[string]float64, params *model.FeedParams) ([]*model.RecommendationCard, *model.FeedMetadata, error) {
	reqBody := &engineRequest{
		RequestID:   uuid.New().String(),
		UserID:      userID,
		Context:     feedContext,
		Preferences: preferences,
		Params:      params,
	}

	bodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal engine request: %v", err)
	}

	url := c.baseURL + "/recommendations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, nil, fmt.Errorf("build engine request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", reqBody.RequestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error(ctx, "Recommendation engine request failed",
			logger.F("userID", userID),
			logger.F("requestID", reqBody.RequestID),
			logger.F("error", err.Error()))
		return nil, nil, fmt.Errorf("%w: %v", model.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error(ctx, "Recommendation engine returned error status",
			logger.F("userID", userID),
			logger.F("requestID", reqBody.RequestID),
			logger.F("status", resp.StatusCode))
		return nil, nil, fmt.Errorf("%w: status %d", model.ErrGatewayUnavailable, resp.StatusCode)
	}

	var engineResp engineResponse
	if err := json.NewDecoder(resp.Body).Decode(&engineResp); err != nil {
		return nil, nil, fmt.Errorf("%w: decode response: %v", model.ErrMalformedGatewayResponse, err)
	}

	listings, err := decodeListings(engineResp.Listings)
	if err != nil {
		return nil, nil, err
	}

	cards := make([]*model.RecommendationCard, 0, len(listings))
	for i := range listings {
		cards = append(cards, normalizeCard(&listings[i]))
	}

	metadata := &model.FeedMetadata{
		Context:     feedContext,
		GeneratedAt: time.Now(),
		TotalCount:  engineResp.TotalCount,
		HasMore:     engineResp.HasMore,
	}
	if params != nil {
		metadata.Page = params.Page
	}
	if metadata.TotalCount == 0 {
		metadata.TotalCount = int64(len(cards))
	}

	return cards, metadata, nil
}

// decodeListings 校验listings形状并解码
// 契约要求listings必须是数组，缺失、null或其他形状都是契约违规
func decodeListings(raw json.RawMessage) ([]engineListing, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: listings missing or null", model.ErrMalformedGatewayResponse)
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: listings is not an array", model.ErrMalformedGatewayResponse)
	}

	var listings []engineListing
	if err := json.Unmarshal(trimmed, &listings); err != nil {
		return nil, fmt.Errorf("%w: decode listings: %v", model.ErrMalformedGatewayResponse, err)
	}
	return listings, nil
}

// normalizeCard 把引擎返回的条目归一化成固定卡片结构
// 缺失字段一律补零值，不允许把引擎的未定义字段透传给客户端
func normalizeCard(listing *engineListing) *model.RecommendationCard {
	card := &model.RecommendationCard{
		Title:       listing.Title,
		Description: listing.Description,
		Images:      listing.Images,
		City:        listing.City,
		Amenities:   listing.Amenities,
		Explanation: listing.Explanation,
		Metadata:    listing.Metadata,
	}

	if listing.TargetID != nil {
		card.TargetID = *listing.TargetID
	} else if listing.ID != nil {
		card.TargetID = *listing.ID
	}
	if listing.Price != nil {
		card.Price = *listing.Price
	}
	if listing.Rating != nil {
		card.Rating = *listing.Rating
	}
	if listing.RatingCount != nil {
		card.RatingCount = *listing.RatingCount
	}
	if listing.Location != nil {
		card.Location = *listing.Location
	}
	if listing.Available != nil {
		card.Available = *listing.Available
	}
	if listing.OwnerID != nil {
		card.OwnerID = *listing.OwnerID
	}
	if listing.Confidence != nil {
		card.Confidence = *listing.Confidence
	}

	if card.Images == nil {
		card.Images = []string{}
	}
	if card.Amenities == nil {
		card.Amenities = []string{}
	}

	return card
}

// NotifyInteraction 互动事件通知，尽力而为
// 引擎收不到通知不影响事件落库，失败只记日志
func (c *EngineClient) NotifyInteraction(ctx context.Context, msg *model.InteractionEventMessage) {
	bodyJSON, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error(ctx, "Failed to marshal interaction notification",
			logger.F("eventID", msg.EventID),
			logger.F("error", err.Error()))
		return
	}

	url := c.baseURL + "/events"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn(ctx, "Failed to notify engine of interaction",
			logger.F("eventID", msg.EventID),
			logger.F("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn(ctx, "Engine rejected interaction notification",
			logger.F("eventID", msg.EventID),
			logger.F("status", resp.StatusCode))
	}
}
