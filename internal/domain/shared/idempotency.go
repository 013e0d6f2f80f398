package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed inbound event IDs so redelivered
// messages are acknowledged without reapplying their effects.
type IdempotencyStore interface {
	// MarkProcessed marks an event as processed with a TTL.
	// Returns true if the event was newly marked, false if a previous
	// delivery already claimed it.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an event has already been processed
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Remove releases a processed mark, allowing the event to be
	// applied again. Used when processing fails after the mark was
	// taken, so a redelivery is not short-circuited into a lost effect.
	Remove(ctx context.Context, eventID string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed event IDs. After this window
	// the same event ID would be applied again; it bounds the dedup
	// guarantee, so keep it longer than the broker's redelivery horizon.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
