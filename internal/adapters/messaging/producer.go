package messaging

import (
	"context"
	"encoding/json"
	"time"

	"shg-finance/internal/config"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of *kafka.Writer the producer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LoanEventProducer publishes loan lifecycle events to a Kafka topic.
// A nil producer (no brokers configured) skips publishing.
type LoanEventProducer struct {
	writer messageWriter
	topic  string
}

// NewLoanEventProducer returns nil when no brokers are configured
func NewLoanEventProducer(cfg config.KafkaConfig) *LoanEventProducer {
	if len(cfg.Brokers) == 0 {
		logger.Info("kafka disabled, loan events are not published")
		return nil
	}

	logger.Info("kafka producer ready", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.LoanTopic))
	return &LoanEventProducer{
		topic: cfg.LoanTopic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.LoanTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
	}
}

// PublishLoanEvent writes one event keyed by loan, so a loan's events stay ordered
func (p *LoanEventProducer) PublishLoanEvent(ctx context.Context, event domain.LoanEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
		},
	})
}

// Close flushes pending writes
func (p *LoanEventProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
