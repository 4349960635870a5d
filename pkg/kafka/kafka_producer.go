package kafka

import (
	"context"

	"alertflow/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// Kafka 生产者服务
// 定义接口，方便测试和替换
type ProducerService interface {
	Produce(ctx context.Context, key []byte, event interface{}) error
	Close()
}

type kafkaProducer struct {
	orderWriter *kafka.Writer // 订单事件
}

const TopicOrderEvents = "futures_order_events"

func NewKafkaProducer(brokerURL string) ProducerService {
	orderWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokerURL),
		Topic:    TopicOrderEvents,
		Balancer: &kafka.LeastBytes{}, // 保证写入负载均衡
	}
	return &kafkaProducer{
		orderWriter: orderWriter,
	}
}

// Produce 序列化事件并写入Kafka，key使用symbol保证同币种有序
func (p *kafkaProducer) Produce(ctx context.Context, key []byte, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.orderWriter.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: payload,
	})
}

func (p *kafkaProducer) Close() {
	if err := p.orderWriter.Close(); err != nil {
		logger.Errorf("Error closing order writer: %v", err)
	}
}
