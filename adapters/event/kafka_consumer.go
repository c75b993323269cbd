package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

// Handler processes one decoded event. A returned error is retried with
// backoff; once the attempts run out the event is logged as dropped.
type Handler func(ctx context.Context, payload PortfolioEventPayload) error

const (
	defaultMaxAttempts  = 5
	defaultRetryBackoff = 200 * time.Millisecond
)

type PortfolioConsumer struct {
	reader       *kafka.Reader
	logger       logger.Logger
	maxAttempts  uint
	retryBackoff time.Duration
}

func NewPortfolioConsumer(cfg config.Config, log logger.Logger) *PortfolioConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    TopicPortfolioEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &PortfolioConsumer{
		reader:       reader,
		logger:       log,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}

// Run reads until ctx is cancelled.
func (c *PortfolioConsumer) Run(ctx context.Context, handle Handler) error {
	c.logger.Info("Worker listening", zap.String("topic", TopicPortfolioEvents))
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.logger.Error("Failed to read message from Kafka", err)
			continue
		}

		var payload PortfolioEventPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			c.logger.Warn("Skipping malformed event", zap.Error(err), zap.ByteString("key", msg.Key))
			c.commit(ctx, msg)
			continue
		}

		if err := c.process(ctx, handle, payload); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Dropping event after retries", err,
				zap.String("event_type", string(payload.EventType)),
				zap.String("portfolio_id", payload.PortfolioID.String()),
				zap.Int64("offset", msg.Offset))
		}
		c.commit(ctx, msg)
	}
}

// process runs handle until it succeeds, the attempts run out or ctx ends.
func (c *PortfolioConsumer) process(ctx context.Context, handle Handler, payload PortfolioEventPayload) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBackoff
	b.MaxInterval = 10 * c.retryBackoff

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.dispatch(ctx, handle, payload)
		if err != nil {
			c.logger.Warn("Failed to process event",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.String("event_type", string(payload.EventType)),
				zap.String("portfolio_id", payload.PortfolioID.String()))
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxAttempts))
	return err
}

func (c *PortfolioConsumer) dispatch(ctx context.Context, handle Handler, payload PortfolioEventPayload) error {
	ctx, span := tracer.Start(ctx, "HandlePortfolioEvent", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("event_type", string(payload.EventType)),
		attribute.String("portfolio_id", payload.PortfolioID.String()),
	)

	err := handle(ctx, payload)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *PortfolioConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err)
	}
}

func (c *PortfolioConsumer) Close() error {
	return c.reader.Close()
}
