package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/segmentio/kafka-go"
)

// KafkaNotifier 把事件写到 Kafka topic，按车牌做 key 保证同车事件有序。
// 写入是异步的，错误只记日志。
type KafkaNotifier struct {
	writer *kafka.Writer
	log    logger.Logger
}

func NewKafkaNotifier(brokers []string, topic string, log logger.Logger) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers is empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is empty")
	}

	n := &KafkaNotifier{log: log}
	n.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           100 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil && n.log != nil {
				n.log.Warnf("kafka publish failed: %v", err)
			}
		},
	}
	return n, nil
}

func (n *KafkaNotifier) PublishParkingLogUpdate(ctx context.Context, ev ParkingLogUpdate) error {
	ev.Type = "parking_log_update"
	return n.publish(ctx, ev.VehiclePlate, ev)
}

func (n *KafkaNotifier) PublishOperatorAlert(ctx context.Context, alert OperatorAlert) error {
	alert.Type = "operator_alert"
	return n.publish(ctx, alert.VehiclePlate, alert)
}

func (n *KafkaNotifier) publish(ctx context.Context, key string, payload interface{}) error {
	if n == nil || n.writer == nil {
		return fmt.Errorf("notifier is not initialized")
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
