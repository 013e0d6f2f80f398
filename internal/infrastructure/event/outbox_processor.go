package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	MaxBackoff       time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		MaxBackoff:       5 * time.Minute,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  1 * time.Hour,
	}
}

// OutboxProcessor drains committed outbox entries to the broker in the
// background. Entries for the same aggregate are delivered in commit
// order; distinct aggregates are drained in parallel. Topic and key
// were fixed at commit time, so entries ship as stored.
type OutboxProcessor struct {
	repo      shared.OutboxRepository
	publisher shared.MessagePublisher
	config    OutboxProcessorConfig
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	publisher shared.MessagePublisher,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// Start starts the background processing
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the processor
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch drains one batch of pending and retry-due entries.
// Exported so tests and operator tooling can drive a drain directly.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) {
	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending entries", zap.Error(err))
		return
	}
	if len(pending) > 0 {
		p.processEntries(ctx, pending)
	}

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable entries", zap.Error(err))
		return
	}
	if len(retryable) > 0 {
		p.processEntries(ctx, retryable)
	}
}

// processEntries claims the entries, then drains them grouped per
// aggregate: within a group delivery is sequential and stops at the
// first failure so later events never overtake an undelivered one.
func (p *OutboxProcessor) processEntries(ctx context.Context, entries []*shared.OutboxEntry) {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to mark entries as processing", zap.Error(err))
		return
	}
	if len(claimed) == 0 {
		return
	}

	groups := make(map[uuid.UUID][]*shared.OutboxEntry)
	order := make([]uuid.UUID, 0)
	for _, entry := range claimed {
		if _, seen := groups[entry.AggregateID]; !seen {
			order = append(order, entry.AggregateID)
		}
		groups[entry.AggregateID] = append(groups[entry.AggregateID], entry)
	}

	var wg sync.WaitGroup
	for _, aggID := range order {
		group := groups[aggID]
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.drainGroup(ctx, group)
		}()
	}
	wg.Wait()
}

func (p *OutboxProcessor) drainGroup(ctx context.Context, group []*shared.OutboxEntry) {
	for i, entry := range group {
		if err := p.publisher.Publish(ctx, entry.Topic, entry.PartitionKey, entry.Payload); err != nil {
			retryAt := p.markFailed(ctx, entry, err)
			// Hold the rest of the group behind the failed head: they
			// retry together at the head's schedule and must not ship
			// before it.
			p.holdBehind(ctx, group[i+1:], retryAt)
			return
		}

		entry.MarkSent()
		if err := p.repo.Update(ctx, entry); err != nil {
			p.logger.Error("failed to mark entry as sent",
				zap.String("event_id", entry.EventID.String()),
				zap.Error(err),
			)
		}
	}
}

func (p *OutboxProcessor) markFailed(ctx context.Context, entry *shared.OutboxEntry, cause error) *time.Time {
	p.logger.Error("failed to publish event",
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("topic", entry.Topic),
		zap.Int("retry_count", entry.RetryCount+1),
		zap.Error(cause),
	)

	entry.MarkFailed(cause.Error())
	if entry.NextRetryAt != nil {
		capped := time.Now().Add(p.config.MaxBackoff)
		if entry.NextRetryAt.After(capped) {
			entry.NextRetryAt = &capped
		}
	}
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to update entry", zap.Error(err))
	}
	return entry.NextRetryAt
}

// holdBehind parks claimed entries behind a failed predecessor. They
// become retryable at the predecessor's schedule, so the retry pass
// picks the whole group up again in commit order.
func (p *OutboxProcessor) holdBehind(ctx context.Context, entries []*shared.OutboxEntry, retryAt *time.Time) {
	for _, entry := range entries {
		entry.Status = shared.OutboxStatusFailed
		entry.NextRetryAt = retryAt
		entry.UpdatedAt = time.Now()
		if err := p.repo.Update(ctx, entry); err != nil {
			p.logger.Error("failed to hold back entry",
				zap.String("event_id", entry.EventID.String()),
				zap.Error(err),
			)
		}
	}
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup(ctx)
		}
	}
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to cleanup old entries", zap.Error(err))
		return
	}

	if deleted > 0 {
		p.logger.Info("cleaned up old outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
