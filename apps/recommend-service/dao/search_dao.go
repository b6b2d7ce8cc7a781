package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/logger"
)

// elasticsearchDAO 互动历史索引实现
type elasticsearchDAO struct {
	client *elasticsearch.Client
	logger logger.Logger
}

// NewSearchDAO 创建互动历史索引DAO实例
func NewSearchDAO(client *elasticsearch.Client, log logger.Logger) SearchDAO {
	return &elasticsearchDAO{
		client: client,
		logger: log,
	}
}

// IndexInteraction 索引一条互动事件
// 文档ID用事件ID，消费端重复消费时自然幂等
func (d *elasticsearchDAO) IndexInteraction(ctx context.Context, msg *model.InteractionEventMessage) error {
	docJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction document: %v", err)
	}

	req := esapi.IndexRequest{
		Index:      model.IndexInteractionHistory,
		DocumentID: strconv.FormatInt(msg.EventID, 10),
		Body:       bytes.NewReader(docJSON),
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to index interaction",
			logger.F("event_id", msg.EventID),
			logger.F("error", err.Error()))
		return fmt.Errorf("failed to index interaction: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index interaction: %s", res.String())
	}

	return nil
}

// SearchUserInteractions 检索用户互动历史（审计和导出用）
func (d *elasticsearchDAO) SearchUserInteractions(ctx context.Context, userID int64, kind string, from, size int) ([]*model.InteractionEventMessage, int64, error) {
	must := []map[string]interface{}{
		{"term": map[string]interface{}{"user_id": userID}},
	}
	if kind != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"kind": kind},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
		"sort": []map[string]interface{}{
			{"timestamp": map[string]interface{}{"order": "desc"}},
		},
		"from": from,
		"size": size,
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{model.IndexInteractionHistory},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to search interactions",
			logger.F("user_id", userID),
			logger.F("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to search interactions: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search interactions failed: %s", res.String())
	}

	var response struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source model.InteractionEventMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %v", err)
	}

	results := make([]*model.InteractionEventMessage, 0, len(response.Hits.Hits))
	for i := range response.Hits.Hits {
		results = append(results, &response.Hits.Hits[i].Source)
	}

	return results, response.Hits.Total.Value, nil
}

// DeleteUserInteractions 隐私清除：按用户删除全部索引文档
func (d *elasticsearchDAO) DeleteUserInteractions(ctx context.Context, userID int64) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"user_id": userID},
		},
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to marshal delete query: %v", err)
	}

	req := esapi.DeleteByQueryRequest{
		Index: []string{model.IndexInteractionHistory},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to delete user interactions",
			logger.F("user_id", userID),
			logger.F("error", err.Error()))
		return fmt.Errorf("failed to delete user interactions: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to delete user interactions: %s", res.String())
	}

	return nil
}
