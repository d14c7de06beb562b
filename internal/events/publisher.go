// Package events publishes paper discovery events to Kafka.
//
// The aggregator emits one paper.discovered event for every paper it stores for
// the first time. Publishing is best effort: failures are logged and counted,
// never returned to the search that produced the paper.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

const defaultWriteTimeout = 5 * time.Second

// Publisher emits discovery events.
type Publisher interface {
	// PublishPaperDiscovered announces a newly stored paper. query is the search
	// that surfaced it and may be empty.
	PublishPaperDiscovered(ctx context.Context, paper *domain.Paper, query string)

	// Close flushes pending events and releases the underlying connection.
	Close() error
}

// Noop discards every event.
type Noop struct{}

// PublishPaperDiscovered does nothing.
func (Noop) PublishPaperDiscovered(context.Context, *domain.Paper, string) {}

// Close does nothing.
func (Noop) Close() error { return nil }

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic for discovery events.
	Topic string
	// BatchSize is the maximum number of messages per produce request.
	BatchSize int
	// BatchTimeout bounds how long an incomplete batch waits before it is sent.
	BatchTimeout time.Duration
	// WriteTimeout bounds a single publish. Zero uses 5s.
	WriteTimeout time.Duration
}

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by paper id, so that
// every event of one paper lands on the same partition.
type KafkaPublisher struct {
	writer       messageWriter
	writeTimeout time.Duration
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg Config, metrics *observability.Metrics, logger zerolog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
	}

	return newKafkaPublisher(writer, cfg.WriteTimeout, metrics, logger), nil
}

func newKafkaPublisher(writer messageWriter, writeTimeout time.Duration, metrics *observability.Metrics, logger zerolog.Logger) *KafkaPublisher {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &KafkaPublisher{
		writer:       writer,
		writeTimeout: writeTimeout,
		metrics:      metrics,
		logger:       observability.WithComponent(logger, "event_publisher"),
	}
}

// PublishPaperDiscovered writes a paper.discovered event. Errors are logged.
func (p *KafkaPublisher) PublishPaperDiscovered(ctx context.Context, paper *domain.Paper, query string) {
	err := p.publish(ctx, paper, query)
	p.metrics.RecordEventPublished(err)
	if err != nil {
		log := observability.LoggerFromContext(ctx, p.logger)
		log.Warn().Err(err).
			Int64("paper_id", paper.ID).
			Msg("failed to publish paper discovered event")
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, paper *domain.Paper, query string) error {
	event, err := domain.NewPaperDiscoveredEvent(paper, query)
	if err != nil {
		return fmt.Errorf("build event: %w", err)
	}
	if requestID := observability.RequestIDFromContext(ctx); requestID != "" {
		event.WithMetadata(map[string]any{"request_id": requestID})
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// The write outlives a cancelled request; only the timeout bounds it.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.writeTimeout)
	defer cancel()

	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(strconv.FormatInt(paper.ID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	})
}

// Close flushes pending messages and closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info().Msg("closing event publisher")
	return p.writer.Close()
}
