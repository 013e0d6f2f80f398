package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// OutboxService exposes operator-facing outbox management: inspecting
// dead letters and requeueing them after the underlying fault is fixed.
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{
		repo:   repo,
		logger: logger,
	}
}

// OutboxEntryDTO represents an outbox entry in admin responses
type OutboxEntryDTO struct {
	ID               uuid.UUID  `json:"id"`
	EventID          uuid.UUID  `json:"eventId"`
	EventType        string     `json:"eventType"`
	AggregateID      uuid.UUID  `json:"aggregateId"`
	AggregateType    string     `json:"aggregateType"`
	Topic            string     `json:"topic"`
	PartitionKey     string     `json:"partitionKey"`
	AggregateVersion int        `json:"aggregateVersion"`
	Status           string     `json:"status"`
	RetryCount       int        `json:"retryCount"`
	LastError        string     `json:"lastError,omitempty"`
	NextRetryAt      *time.Time `json:"nextRetryAt,omitempty"`
	ProcessedAt      *time.Time `json:"processedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// OutboxStatsDTO aggregates entry counts by status
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:               entry.ID,
		EventID:          entry.EventID,
		EventType:        entry.EventType,
		AggregateID:      entry.AggregateID,
		AggregateType:    entry.AggregateType,
		Topic:            entry.Topic,
		PartitionKey:     entry.PartitionKey,
		AggregateVersion: entry.AggregateVersion,
		Status:           string(entry.Status),
		RetryCount:       entry.RetryCount,
		LastError:        entry.LastError,
		NextRetryAt:      entry.NextRetryAt,
		ProcessedAt:      entry.ProcessedAt,
		CreatedAt:        entry.CreatedAt,
		UpdatedAt:        entry.UpdatedAt,
	}
}

// GetDeadLetters retrieves dead letter entries with pagination
func (s *OutboxService) GetDeadLetters(ctx context.Context, filter shared.Filter) (shared.Paginated[OutboxEntryDTO], error) {
	filter = filter.Normalize()

	entries, total, err := s.repo.FindDead(ctx, filter.Page, filter.PageSize)
	if err != nil {
		s.logger.Error("failed to list dead letter entries", zap.Error(err))
		return shared.Paginated[OutboxEntryDTO]{}, err
	}

	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toOutboxEntryDTO(entry)
	}
	return shared.NewPaginated(dtos, total, filter.Page, filter.PageSize), nil
}

// GetEntry retrieves a single outbox entry by ID
func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDeadEntry requeues one dead letter for delivery
func (s *OutboxService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError("VALIDATION", err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("failed to requeue dead letter", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}

	s.logger.Info("dead letter requeued",
		zap.String("id", id.String()),
		zap.String("eventType", entry.EventType))

	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// DiscardEntry moves one undelivered entry to the dead letter queue.
// Later entries of the same aggregate flow again once the operator
// either discards or requeues the poisoned head.
func (s *OutboxService) DiscardEntry(ctx context.Context, id uuid.UUID, reason string) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := entry.MarkDead(reason); err != nil {
		return nil, shared.NewDomainError("VALIDATION", err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("failed to discard entry", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}

	s.logger.Warn("outbox entry discarded",
		zap.String("id", id.String()),
		zap.String("eventType", entry.EventType),
		zap.String("reason", reason))

	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries requeues every dead letter and returns the count.
// Every reset removes the entry from the dead set, so each pass
// re-reads the first page; a pass that requeues nothing means the
// remaining entries cannot be updated and the sweep stops.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context) (int64, error) {
	var count int64
	pageSize := 100

	for {
		entries, _, err := s.repo.FindDead(ctx, 1, pageSize)
		if err != nil {
			return count, err
		}
		if len(entries) == 0 {
			break
		}

		var requeued int64
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("failed to requeue dead letter",
					zap.Error(err), zap.String("id", entry.ID.String()))
				continue
			}
			requeued++
		}
		count += requeued

		if requeued == 0 || len(entries) < pageSize {
			break
		}
	}

	s.logger.Info("dead letters requeued", zap.Int64("count", count))
	return count, nil
}

// GetStats returns outbox entry counts by status
func (s *OutboxService) GetStats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	stats.Total = stats.Pending + stats.Processing + stats.Sent + stats.Failed + stats.Dead
	return stats, nil
}
