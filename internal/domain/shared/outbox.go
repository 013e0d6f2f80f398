package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus represents the status of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

// Retry timing. Delivery retries are unbounded: a committed mutation's
// events are never dropped by the publisher, only an operator discard
// moves an entry to DEAD. The shift cap keeps the exponential backoff
// finite; the drain loop applies its own configurable ceiling on top.
const (
	DefaultBaseBackoff = time.Second
	maxBackoffShift    = 10
)

// OutboxEntry is an event recorded durably in the same transaction as
// the state change that produced it, awaiting delivery to the broker.
// Topic and PartitionKey are fixed at commit time so the drain loop
// never has to interpret the payload.
type OutboxEntry struct {
	ID               uuid.UUID
	EventID          uuid.UUID
	EventType        string
	AggregateID      uuid.UUID
	AggregateType    string
	Topic            string
	PartitionKey     string
	Payload          []byte
	AggregateVersion int
	Status           OutboxStatus
	RetryCount       int
	LastError        string
	NextRetryAt      *time.Time
	ProcessedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewOutboxEntry creates a pending outbox entry for a routed domain event.
// aggregateVersion records the aggregate version the producing commit wrote.
func NewOutboxEntry(event RoutedEvent, topic string, payload []byte, aggregateVersion int) *OutboxEntry {
	return &OutboxEntry{
		ID:               uuid.New(),
		EventID:          event.EventID(),
		EventType:        event.EventType(),
		AggregateID:      event.AggregateID(),
		AggregateType:    event.AggregateType(),
		Topic:            topic,
		PartitionKey:     event.PartitionKey(),
		Payload:          payload,
		AggregateVersion: aggregateVersion,
		Status:           OutboxStatusPending,
		RetryCount:       0,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// CanRetry returns true if the entry can be retried
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed
}

// MarkProcessing marks the entry as being processed
func (e *OutboxEntry) MarkProcessing() error {
	if e.Status != OutboxStatusPending && e.Status != OutboxStatusFailed {
		return errors.New("can only mark pending or failed entries as processing")
	}
	e.Status = OutboxStatusProcessing
	e.UpdatedAt = time.Now()
	return nil
}

// MarkSent marks the entry as successfully delivered
func (e *OutboxEntry) MarkSent() {
	now := time.Now()
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a delivery failure and schedules the next attempt.
// The entry stays retryable no matter how many attempts have failed.
func (e *OutboxEntry) MarkFailed(errMsg string) {
	e.RetryCount++
	e.LastError = errMsg
	e.Status = OutboxStatusFailed
	e.UpdatedAt = time.Now()

	// Exponential backoff: 1s, 2s, 4s, ... up to the shift cap
	shift := uint(e.RetryCount - 1)
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	nextRetry := time.Now().Add(DefaultBaseBackoff * time.Duration(1<<shift))
	e.NextRetryAt = &nextRetry
}

// MarkDead discards the entry from delivery. Operator action only:
// the drain loop never dead-letters on its own.
func (e *OutboxEntry) MarkDead(reason string) error {
	if e.Status == OutboxStatusSent {
		return errors.New("cannot discard a delivered entry")
	}
	e.Status = OutboxStatusDead
	if reason != "" {
		e.LastError = reason
	}
	e.NextRetryAt = nil
	e.UpdatedAt = time.Now()
	return nil
}

// ResetForRetry requeues a dead entry after operator intervention
func (e *OutboxEntry) ResetForRetry() error {
	if e.Status != OutboxStatusDead {
		return errors.New("can only retry dead letter entries")
	}
	e.Status = OutboxStatusPending
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.UpdatedAt = time.Now()
	return nil
}

// IsDead returns true if the entry is in dead letter status
func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// OutboxRepository defines the interface for outbox persistence
type OutboxRepository interface {
	// Save persists one or more outbox entries
	Save(ctx context.Context, entries ...*OutboxEntry) error
	// FindPending retrieves pending entries up to the specified limit,
	// oldest first
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable retrieves failed entries that are due for retry
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	// FindDead retrieves dead letter entries with pagination
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	// FindByID retrieves a single outbox entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing atomically claims entries and returns them
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	// Update updates an existing outbox entry
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan deletes sent entries older than the specified time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	// CountByStatus returns count of entries for each status
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
