package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	TopicPortfolioEvents = "portfolio.events"
)

type PortfolioEventType string

const (
	PortfolioPublished   PortfolioEventType = "portfolio.published"
	PortfolioUnpublished PortfolioEventType = "portfolio.unpublished"
	PortfolioUpdated     PortfolioEventType = "portfolio.updated"
	PortfolioDeleted     PortfolioEventType = "portfolio.deleted"
)

// PortfolioEventPayload is the message body on TopicPortfolioEvents. Images
// is only set on delete, so the worker can release unreferenced assets.
type PortfolioEventPayload struct {
	EventType   PortfolioEventType `json:"event_type"`
	PortfolioID uuid.UUID          `json:"portfolio_id"`
	OwnerID     uuid.UUID          `json:"owner_id"`
	Slug        string             `json:"slug"`
	Images      []string           `json:"images,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

var tracer = otel.Tracer("kafka_event")

type KafkaProducerClient struct {
	PortfolioEventsWriter *kafka.Writer
	logger                logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'portfolio.events'
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicPortfolioEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.")
	return &KafkaProducerClient{PortfolioEventsWriter: writer, logger: log}, nil
}

// PublishPortfolioEvent writes one event keyed by portfolio id, so events of a
// portfolio stay ordered on one partition.
func (c *KafkaProducerClient) PublishPortfolioEvent(ctx context.Context, payload PortfolioEventPayload) error {
	ctx, span := tracer.Start(ctx, "PublishPortfolioEvent", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(attribute.String("event_type", string(payload.EventType)))

	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal portfolio event: %w", err)
	}
	err = c.PortfolioEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.PortfolioID.String()),
		Value: value,
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *KafkaProducerClient) Close() {
	if c.PortfolioEventsWriter != nil {
		c.PortfolioEventsWriter.Close()
	}
	c.logger.Info("Closed Kafka Producers")
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPortfolioEvent(context.Context, PortfolioEventPayload) error { return nil }
