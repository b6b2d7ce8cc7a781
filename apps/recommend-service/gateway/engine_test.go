package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *EngineClient {
	t.Helper()
	log, err := logger.NewLogger("error")
	if err != nil {
		t.Fatalf("创建日志器失败: %v", err)
	}
	return NewEngineClient(baseURL, 2*time.Second, log)
}

// TestRequestRecommendations 测试正常响应的解码与卡片归一化
// 缺失字段补零值，id字段可作为target_id的后备
func TestRequestRecommendations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommendations" {
			t.Errorf("请求路径 = %q, 期望 /recommendations", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("请求缺少 X-Request-ID")
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("请求体解码失败: %v", err)
		}
		if req["context"] != "fyp" {
			t.Errorf("请求context = %v, 期望 fyp", req["context"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"listings": [
				{"target_id": 200, "title": "海景别墅", "price": 350.5, "rating": 4.8, "rating_count": 42,
				 "images": ["a.jpg"], "amenities": ["wifi"], "available": true, "city": "三亚"},
				{"id": 201, "title": "市区公寓"}
			],
			"total_count": 87,
			"has_more": true
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	cards, metadata, err := client.RequestRecommendations(context.Background(), 100, "fyp",
		map[string]float64{"beach": 5}, &model.FeedParams{Page: 2, Limit: 20})
	if err != nil {
		t.Fatalf("RequestRecommendations 返回错误: %v", err)
	}

	if len(cards) != 2 {
		t.Fatalf("卡片数 = %d, 期望 2", len(cards))
	}

	full := cards[0]
	if full.TargetID != 200 || full.Price != 350.5 || full.Rating != 4.8 || !full.Available {
		t.Errorf("完整卡片 = %+v, 字段与响应不符", full)
	}

	// 缺失字段归一化：id作为target_id后备，数值补0，切片补空
	sparse := cards[1]
	if sparse.TargetID != 201 {
		t.Errorf("sparse.TargetID = %d, 期望回退到id字段的201", sparse.TargetID)
	}
	if sparse.Price != 0 || sparse.Rating != 0 || sparse.Available {
		t.Errorf("稀疏卡片数值字段未归零: %+v", sparse)
	}
	if sparse.Images == nil || sparse.Amenities == nil {
		t.Error("稀疏卡片的切片字段应为空切片而不是nil")
	}

	if metadata.TotalCount != 87 || !metadata.HasMore || metadata.Page != 2 {
		t.Errorf("metadata = %+v, 期望 total=87 hasMore=true page=2", metadata)
	}
}

// TestRequestRecommendationsEmptyListings 空数组是合法的空结果
func TestRequestRecommendationsEmptyListings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"listings": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	cards, _, err := client.RequestRecommendations(context.Background(), 100, "fyp", nil, nil)
	if err != nil {
		t.Errorf("空数组响应不应报错, 得到 %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("空数组响应的卡片数 = %d, 期望 0", len(cards))
	}
}

// TestRequestRecommendationsUnavailable 网络错误与非2xx都归为引擎不可达
func TestRequestRecommendationsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	client := newTestClient(t, server.URL)

	_, _, err := client.RequestRecommendations(context.Background(), 100, "fyp", nil, nil)
	if !errors.Is(err, model.ErrGatewayUnavailable) {
		t.Errorf("500响应期望 ErrGatewayUnavailable, 得到 %v", err)
	}

	// 连接拒绝
	server.Close()
	_, _, err = client.RequestRecommendations(context.Background(), 100, "fyp", nil, nil)
	if !errors.Is(err, model.ErrGatewayUnavailable) {
		t.Errorf("连接失败期望 ErrGatewayUnavailable, 得到 %v", err)
	}
}

// TestRequestRecommendationsMalformed listings不是数组时单独报错
// 缺失和null同样不是数组，不能当成空结果放行
func TestRequestRecommendationsMalformed(t *testing.T) {
	for _, body := range []string{
		`{"listings": {"0": {"target_id": 1}}}`,
		`{"listings": "not an array"}`,
		`{"listings": null}`,
		`{}`,
		`not json at all`,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}))

		client := newTestClient(t, server.URL)
		_, _, err := client.RequestRecommendations(context.Background(), 100, "fyp", nil, nil)
		if !errors.Is(err, model.ErrMalformedGatewayResponse) {
			t.Errorf("响应 %s 期望 ErrMalformedGatewayResponse, 得到 %v", body, err)
		}
		server.Close()
	}
}

// TestNotifyInteraction 互动通知发往/events，不返回错误
func TestNotifyInteraction(t *testing.T) {
	var mu sync.Mutex
	var gotPath string
	var gotMsg model.InteractionEventMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotMsg)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.NotifyInteraction(context.Background(), &model.InteractionEventMessage{
		EventID:  9,
		UserID:   100,
		TargetID: 200,
		Kind:     "view",
		Weight:   1,
	})

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/events" {
		t.Errorf("通知路径 = %q, 期望 /events", gotPath)
	}
	if gotMsg.EventID != 9 || gotMsg.Kind != "view" {
		t.Errorf("通知内容 = %+v, 与输入不符", gotMsg)
	}
}
