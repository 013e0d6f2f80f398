package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// OutboxEntryModel is the persistence model for domain events stored in
// the outbox. It implements the transactional outbox pattern: rows are
// inserted in the same transaction as the cell mutation and drained by
// the background publisher.
type OutboxEntryModel struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey"`
	EventID          uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	EventType        string              `gorm:"type:varchar(64);not null"`
	AggregateID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_outbox_aggregate"`
	AggregateType    string              `gorm:"type:varchar(64);not null"`
	Topic            string              `gorm:"type:varchar(128);not null"`
	PartitionKey     string              `gorm:"type:varchar(128);not null"`
	Payload          []byte              `gorm:"type:jsonb;not null"`
	AggregateVersion int                 `gorm:"not null;default:0"`
	Status           shared.OutboxStatus `gorm:"type:varchar(20);default:PENDING;index:idx_outbox_status_created,priority:1"`
	RetryCount       int                 `gorm:"default:0"`
	LastError        string              `gorm:"type:text"`
	NextRetryAt      *time.Time          `gorm:"index:idx_outbox_next_retry"`
	ProcessedAt      *time.Time
	CreatedAt        time.Time `gorm:"not null;index:idx_outbox_status_created,priority:2"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OutboxEntryModel) TableName() string {
	return "outbox_events"
}

// ToDomain converts the persistence model to a domain OutboxEntry
func (m *OutboxEntryModel) ToDomain() *shared.OutboxEntry {
	return &shared.OutboxEntry{
		ID:               m.ID,
		EventID:          m.EventID,
		EventType:        m.EventType,
		AggregateID:      m.AggregateID,
		AggregateType:    m.AggregateType,
		Topic:            m.Topic,
		PartitionKey:     m.PartitionKey,
		Payload:          m.Payload,
		AggregateVersion: m.AggregateVersion,
		Status:           m.Status,
		RetryCount:       m.RetryCount,
		LastError:        m.LastError,
		NextRetryAt:      m.NextRetryAt,
		ProcessedAt:      m.ProcessedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OutboxEntry
func (m *OutboxEntryModel) FromDomain(e *shared.OutboxEntry) {
	m.ID = e.ID
	m.EventID = e.EventID
	m.EventType = e.EventType
	m.AggregateID = e.AggregateID
	m.AggregateType = e.AggregateType
	m.Topic = e.Topic
	m.PartitionKey = e.PartitionKey
	m.Payload = e.Payload
	m.AggregateVersion = e.AggregateVersion
	m.Status = e.Status
	m.RetryCount = e.RetryCount
	m.LastError = e.LastError
	m.NextRetryAt = e.NextRetryAt
	m.ProcessedAt = e.ProcessedAt
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// OutboxEntryModelFromDomain creates a new persistence model from a domain OutboxEntry
func OutboxEntryModelFromDomain(e *shared.OutboxEntry) *OutboxEntryModel {
	m := &OutboxEntryModel{}
	m.FromDomain(e)
	return m
}
