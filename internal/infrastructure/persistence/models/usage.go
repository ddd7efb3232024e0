package models

import (
	"time"

	"github.com/contractiq/backend/internal/domain/usage"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UsageEventModel is one row of the append-only usage log
type UsageEventModel struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	OwnerModel
	Action     string            `gorm:"type:varchar(64);not null;index"`
	OccurredAt time.Time         `gorm:"not null;index"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UsageEventModel) TableName() string {
	return "usage_events"
}

// FromDomain populates the model from a usage event
func (m *UsageEventModel) FromDomain(e *usage.Event) {
	m.ID = e.ID
	m.SetOwner(e.Tenant)
	m.Action = e.Action
	m.OccurredAt = e.OccurredAt
	if len(e.Metadata) > 0 {
		m.Metadata = datatypes.JSONMap(e.Metadata)
	}
}

// ToDomain converts the model back to a usage event
func (m *UsageEventModel) ToDomain() *usage.Event {
	e := &usage.Event{
		ID:         m.ID,
		Tenant:     m.Owner(),
		Action:     m.Action,
		OccurredAt: m.OccurredAt,
	}
	if len(m.Metadata) > 0 {
		e.Metadata = map[string]any(m.Metadata)
	}
	return e
}
