// Package usage holds the append-only usage event log written by the API and
// read back, grouped, by reports.
package usage

import (
	"context"
	"strings"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Known actions. Actions are free-form strings; these are the ones this
// service writes itself.
const (
	ActionReportGenerated = "report.generated"
	ActionReportExported  = "report.exported"
)

// MaxActionLength bounds action names to the column width
const MaxActionLength = 64

// Event is a single logged occurrence of a trackable action
type Event struct {
	ID         uuid.UUID
	Tenant     report.TenantRef
	Action     string
	OccurredAt time.Time
	Metadata   map[string]any
}

// NewEvent validates and builds a usage event
func NewEvent(tenant report.TenantRef, action string, occurredAt time.Time) (*Event, error) {
	if tenant.IsZero() {
		return nil, shared.ErrInvalidInput.WithMessage("usage event requires a tenant")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, shared.ErrInvalidInput.WithMessage("usage event requires an action")
	}
	if len(action) > MaxActionLength {
		return nil, shared.ErrInvalidInput.WithMessage("usage event action is too long")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &Event{
		ID:         uuid.New(),
		Tenant:     tenant,
		Action:     action,
		OccurredAt: occurredAt,
	}, nil
}

// EventWriter appends usage events to the log
type EventWriter interface {
	// AppendBatch writes events in one round trip; events are never updated
	AppendBatch(ctx context.Context, events []*Event) error
}
