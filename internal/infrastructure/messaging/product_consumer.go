package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/early-express/inventory-service/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// eventEnvelope peeks at the type field before full deserialization
type eventEnvelope struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
}

// ProductEventConsumer subscribes to product lifecycle topics and dispatches
// decoded events to the registered handlers. Offsets are committed only after
// every handler succeeds, so a crash or handler error leaves the message
// uncommitted and the broker redelivers it.
type ProductEventConsumer struct {
	readers    []*kafka.Reader
	serializer *event.EventSerializer
	registry   *event.HandlerRegistry
	logger     *zap.Logger
}

// ConsumerConfig holds broker and subscription settings
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// NewProductEventConsumer creates a consumer with one reader per topic
func NewProductEventConsumer(cfg ConsumerConfig, serializer *event.EventSerializer, registry *event.HandlerRegistry, logger *zap.Logger) *ProductEventConsumer {
	readers := make([]*kafka.Reader, 0, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		readers = append(readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Brokers,
			GroupID:           cfg.GroupID,
			Topic:             topic,
			MinBytes:          10e3,
			MaxBytes:          10e6,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}))
	}
	return &ProductEventConsumer{
		readers:    readers,
		serializer: serializer,
		registry:   registry,
		logger:     logger,
	}
}

// Run consumes all subscribed topics until the context is cancelled
func (c *ProductEventConsumer) Run(ctx context.Context) {
	for _, r := range c.readers {
		go c.consume(ctx, r)
	}
	c.logger.Info("product event consumer started", zap.Int("topics", len(c.readers)))
}

func (c *ProductEventConsumer) consume(ctx context.Context, r *kafka.Reader) {
	topic := r.Config().Topic
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			c.logger.Error("fetch message", zap.String("topic", topic), zap.Error(err))
			continue
		}

		if err := c.handleMessage(ctx, m); err != nil {
			// leave the offset uncommitted so the broker redelivers
			c.logger.Error("handle message",
				zap.String("topic", topic),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			c.logger.Error("commit message", zap.String("topic", topic), zap.Error(err))
		}
	}
}

func (c *ProductEventConsumer) handleMessage(ctx context.Context, m kafka.Message) error {
	var env eventEnvelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// malformed payloads are logged and committed, redelivery cannot fix them
		c.logger.Warn("skipping malformed message",
			zap.String("topic", m.Topic),
			zap.ByteString("value", m.Value),
			zap.Error(err))
		return nil
	}

	domainEvent, err := c.serializer.Deserialize(env.EventType, m.Value)
	if err != nil {
		c.logger.Warn("skipping message with unknown event type",
			zap.String("topic", m.Topic),
			zap.String("eventType", env.EventType))
		return nil
	}

	handlers := c.registry.GetHandlers(env.EventType)
	if len(handlers) == 0 {
		c.logger.Debug("no handlers for event type", zap.String("eventType", env.EventType))
		return nil
	}

	for _, h := range handlers {
		if err := h.Handle(ctx, domainEvent); err != nil {
			return err
		}
	}

	c.logger.Debug("event handled",
		zap.String("eventType", env.EventType),
		zap.String("eventId", env.EventID))
	return nil
}

// Close closes all readers
func (c *ProductEventConsumer) Close() error {
	var firstErr error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
