package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in
	EventTypes() []string
}

// MessagePublisher delivers serialized events to the broker.
// Messages with the same key are delivered in order.
type MessagePublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

// OutboxEventSaver saves domain events to the outbox table within a transaction.
// Repositories use it to implement the transactional outbox pattern: the
// state mutation and the outbox rows commit or roll back together.
type OutboxEventSaver interface {
	// SaveEvents writes outbox rows for the events inside the current
	// transaction. txProvider is a *gorm.DB transaction. aggregateVersion
	// is the version the surrounding commit writes for the aggregate.
	SaveEvents(ctx context.Context, txProvider interface{}, aggregateVersion int, events ...DomainEvent) error
}
