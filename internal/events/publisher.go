// Package events publishes bundle status changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/metrics"
	"github.com/yourusername/clever-parlay/internal/models"
)

// KafkaConfig holds the bundle event producer settings.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	RequiredAcks int           `mapstructure:"required_acks" validate:"oneof=-1 0 1"`
	Compression  string        `mapstructure:"compression" validate:"omitempty,oneof=gzip snappy lz4 zstd"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes bundle status events to a Kafka topic keyed by bundle.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logrus.Logger
}

// NewKafkaPublisher creates a publisher for the configured brokers.
func NewKafkaPublisher(cfg KafkaConfig, logger *logrus.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: cfg.BatchTimeout,
	}
	return newKafkaPublisher(writer, cfg.Topic, logger), nil
}

func newKafkaPublisher(w messageWriter, topic string, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

// PublishBundleStatus writes one event. Events for a bundle share a partition
// so consumers see them in order.
func (p *KafkaPublisher) PublishBundleStatus(ctx context.Context, ev models.BundleStatusEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.BundleID.String()),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("bundle_status_changed")},
			{Key: "new_status", Value: []byte(ev.NewStatus)},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	metrics.RecordEventPublished(p.topic, err)
	if err != nil {
		return fmt.Errorf("failed to publish bundle %s event: %w", ev.BundleID, err)
	}

	p.logger.WithFields(logrus.Fields{
		"bundle_id":  ev.BundleID,
		"old_status": ev.OldStatus,
		"new_status": ev.NewStatus,
		"topic":      p.topic,
	}).Debug("Published bundle status event")
	return nil
}

// Close flushes pending writes and closes the producer.
func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

// LogPublisher logs events instead of sending them. Used when Kafka is disabled.
type LogPublisher struct {
	logger *logrus.Logger
}

// NewLogPublisher creates a new log-only publisher.
func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishBundleStatus logs the event.
func (p *LogPublisher) PublishBundleStatus(ctx context.Context, ev models.BundleStatusEvent) error {
	p.logger.WithFields(logrus.Fields{
		"bundle_id":  ev.BundleID,
		"old_status": ev.OldStatus,
		"new_status": ev.NewStatus,
	}).Info("Bundle status changed")
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error {
	return nil
}
