package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventix-gateway/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Producer writes keyed JSON messages to any topic through one writer.
type Producer struct {
	Writer  *kafka.Writer
	Brokers []string
	Logger  *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{Writer: writer, Brokers: brokers, Logger: log}
}

// Publish sends value under key. A missing topic is created once and the
// write retried.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: value}

	err := p.Writer.WriteMessages(ctx, msg)
	if err == nil {
		p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("key=%s", key))
		return nil
	}
	if !isUnknownTopic(err) {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.Logger.Warn("KAFKA", fmt.Sprintf("Topic %s missing, creating it: %v", topic, err))
	if err := CreateTopicIfNotExists(p.Brokers, topic, p.Logger); err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s after topic creation: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("key=%s after retry", key))
	return nil
}

func isUnknownTopic(err error) bool {
	if errors.Is(err, kafka.UnknownTopicOrPartition) {
		return true
	}
	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, e := range writeErrs {
			if errors.Is(e, kafka.UnknownTopicOrPartition) {
				return true
			}
		}
	}
	return false
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopProducer drops every message. Used when Kafka is disabled.
type NopProducer struct{}

func (NopProducer) Publish(ctx context.Context, topic, key string, value []byte) error {
	return nil
}
