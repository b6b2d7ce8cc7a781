package consumer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"

	"triphub/apps/recommend-service/dao"
	"triphub/apps/recommend-service/model"
	"triphub/pkg/kafka"
)

// IndexConsumer 互动历史索引消费者
// 职责：消费interaction-events Topic，把互动事件写入Elasticsearch索引
type IndexConsumer struct {
	searchDAO dao.SearchDAO
	consumer  *kafka.Consumer
}

// NewIndexConsumer 创建索引消费者
func NewIndexConsumer(searchDAO dao.SearchDAO) *IndexConsumer {
	return &IndexConsumer{
		searchDAO: searchDAO,
	}
}

// Start 启动索引消费者
func (ic *IndexConsumer) Start(ctx context.Context, brokers []string) error {
	cfg := kafka.KafkaConfig{
		Brokers: brokers,
		GroupID: "recommend-index-consumer-group",
		Topics:  []string{model.TopicInteractionEvents},
	}

	consumer, err := kafka.InitConsumer(cfg, ic)
	if err != nil {
		log.Printf("初始化索引消费者失败: %v", err)
		return err
	}

	ic.consumer = consumer
	log.Printf("索引消费者启动成功，监听topic: %s", model.TopicInteractionEvents)

	return ic.consumer.StartConsuming(ctx)
}

// HandleMessage 实现 kafka.ConsumerHandler 接口
// 文档ID用事件ID，重复消费时覆盖写入，天然幂等
func (ic *IndexConsumer) HandleMessage(msg *sarama.ConsumerMessage) error {
	var event model.InteractionEventMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("解析互动事件失败: %v, 原始消息: %s", err, string(msg.Value))
		return nil // 坏消息直接跳过，重试也不会变好
	}

	if event.EventID == 0 {
		log.Printf("互动事件缺少EventID，跳过: user=%d target=%d", event.UserID, event.TargetID)
		return nil
	}

	if err := ic.searchDAO.IndexInteraction(context.Background(), &event); err != nil {
		log.Printf("索引互动事件失败: %v, eventID=%d", err, event.EventID)
		return err // 返回错误不提交offset，等待重试
	}

	return nil
}
