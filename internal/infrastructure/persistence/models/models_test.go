package models

import (
	"testing"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/usage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "contracts", ContractModel{}.TableName())
	assert.Equal(t, "contract_analyses", AnalysisModel{}.TableName())
	assert.Equal(t, "usage_events", UsageEventModel{}.TableName())
}

func TestOwnerModel_SetOwner(t *testing.T) {
	t.Run("organization tenant sets organization id only", func(t *testing.T) {
		orgID := uuid.New()
		var m OwnerModel
		m.SetOwner(report.OrganizationTenant(orgID))

		require.NotNil(t, m.OrganizationID)
		assert.Equal(t, orgID, *m.OrganizationID)
		assert.Nil(t, m.UserID)
		assert.Equal(t, report.OrganizationTenant(orgID), m.Owner())
	})

	t.Run("user tenant clears organization", func(t *testing.T) {
		userID := uuid.New()
		orgID := uuid.New()
		m := OwnerModel{OrganizationID: &orgID}
		m.SetOwner(report.UserTenant(userID))

		require.NotNil(t, m.UserID)
		assert.Equal(t, userID, *m.UserID)
		assert.Nil(t, m.OrganizationID)
		assert.Equal(t, report.UserTenant(userID), m.Owner())
	})

	t.Run("organization wins over user when both are set", func(t *testing.T) {
		userID := uuid.New()
		orgID := uuid.New()
		m := OwnerModel{UserID: &userID, OrganizationID: &orgID}
		assert.Equal(t, report.OrganizationTenant(orgID), m.Owner())
	})

	t.Run("unowned row has zero tenant", func(t *testing.T) {
		assert.True(t, (&OwnerModel{}).Owner().IsZero())
	})
}

func TestUsageEventModel_RoundTrip(t *testing.T) {
	tenant := report.UserTenant(uuid.New())
	occurred := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	event, err := usage.NewEvent(tenant, usage.ActionReportGenerated, occurred)
	require.NoError(t, err)
	event.Metadata = map[string]any{"period": "month"}

	var m UsageEventModel
	m.FromDomain(event)

	assert.Equal(t, event.ID, m.ID)
	assert.Equal(t, usage.ActionReportGenerated, m.Action)
	assert.Equal(t, "month", m.Metadata["period"])

	back := m.ToDomain()
	assert.Equal(t, event.ID, back.ID)
	assert.Equal(t, tenant, back.Tenant)
	assert.Equal(t, occurred, back.OccurredAt)
	assert.Equal(t, "month", back.Metadata["period"])
}

func TestContractModel_ToRecord(t *testing.T) {
	created := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	m := ContractModel{
		BaseModel:    BaseModel{ID: uuid.New(), CreatedAt: created},
		FileName:     "nda.pdf",
		ContractType: "NDA",
	}

	rec := m.ToRecord()
	assert.Equal(t, m.ID, rec.ID)
	assert.Equal(t, "nda.pdf", rec.FileName)
	assert.Equal(t, "NDA", rec.ContractType)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Nil(t, rec.LatestAnalysis)
}
