package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaProducer writes to topic on the comma separated brokers. Messages
// are keyed by order id so one order's events stay ordered.
func NewKafkaProducer(brokers, topic string, logger *zap.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: writer, logger: logger}
}

func (p *KafkaProducer) Publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encode order event")
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s for order %s", event.Type, event.OrderID)
	}
	p.logger.Debug("event published",
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
