package event

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// TopicResolver maps an event type to the broker topic it is published
// on. config.TopicConfig satisfies this.
type TopicResolver interface {
	TopicFor(eventType string) string
}

// OutboxPublisher writes domain events to the outbox within the same
// transaction as the aggregate mutation. Topic and partition key are
// resolved here, at commit time, so the drain loop ships stored rows
// without interpreting payloads.
type OutboxPublisher struct {
	serializer *EventSerializer
	topics     TopicResolver
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer, topics TopicResolver) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
		topics:     topics,
	}
}

// PublishWithTx writes outbox rows for the events inside the provided
// transaction, so they are persisted atomically with the aggregate change
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, aggregateVersion int, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, ev := range events {
		routed, ok := ev.(shared.RoutedEvent)
		if !ok {
			return fmt.Errorf("event %s does not carry a partition key", ev.EventType())
		}

		topic := p.topics.TopicFor(ev.EventType())
		if topic == "" {
			return fmt.Errorf("no topic configured for event type %s", ev.EventType())
		}

		payload, err := p.serializer.Serialize(ev)
		if err != nil {
			return err
		}

		entries = append(entries, shared.NewOutboxEntry(routed, topic, payload, aggregateVersion))
	}

	repo := NewGormOutboxRepository(tx)
	return repo.Save(ctx, entries...)
}

// SaveEvents implements the shared.OutboxEventSaver interface
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider interface{}, aggregateVersion int, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}

	return p.PublishWithTx(ctx, tx, aggregateVersion, events...)
}

// Ensure OutboxPublisher implements OutboxEventSaver
var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
