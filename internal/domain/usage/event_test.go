package usage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	tenant := report.OrganizationTenant(uuid.New())
	when := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("valid event", func(t *testing.T) {
		e, err := NewEvent(tenant, "  report.generated ", when)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.Equal(t, ActionReportGenerated, e.Action)
		assert.Equal(t, when, e.OccurredAt)
		assert.Equal(t, tenant, e.Tenant)
	})

	t.Run("zero time defaults to now", func(t *testing.T) {
		e, err := NewEvent(tenant, ActionReportExported, time.Time{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), e.OccurredAt, time.Minute)
	})

	invalid := []struct {
		name   string
		tenant report.TenantRef
		action string
	}{
		{"missing tenant", report.TenantRef{}, ActionReportGenerated},
		{"blank action", tenant, "   "},
		{"long action", tenant, strings.Repeat("x", MaxActionLength+1)},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvent(tt.tenant, tt.action, when)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		})
	}
}
