package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// RoutedEvent is a domain event that determines how downstream
// consumers see it ordered: messages with the same partition key land
// on the same partition of the event's topic.
type RoutedEvent interface {
	DomainEvent
	PartitionKey() string
}

// BaseDomainEvent provides common fields for all domain events.
// occurredAt carries second precision on the wire.
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Type      string    `json:"eventType"`
	Timestamp time.Time `json:"occurredAt"`
	AggID     uuid.UUID `json:"aggregateId"`
	AggType   string    `json:"aggregateType"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().Truncate(time.Second),
		AggID:     aggID,
		AggType:   aggType,
	}
}
