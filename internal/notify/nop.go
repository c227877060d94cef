package notify

import "context"

// NopNotifier 丢弃所有事件；Kafka 未配置时使用，也方便测试。
type NopNotifier struct{}

func NewNopNotifier() *NopNotifier { return &NopNotifier{} }

func (*NopNotifier) PublishParkingLogUpdate(ctx context.Context, ev ParkingLogUpdate) error {
	return nil
}

func (*NopNotifier) PublishOperatorAlert(ctx context.Context, alert OperatorAlert) error {
	return nil
}

func (*NopNotifier) Close() error { return nil }
