package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDecodeGenerateJob(t *testing.T) {
	input := `{
		"tenantRef": {"kind": "organization", "id": "6f1c0b8e-7d7e-4c6a-9f0e-3d2b1a0c9e8f"},
		"periodKey": "custom",
		"customStart": "2024-03-01T00:00:00Z",
		"customEnd": "2024-03-10T23:59:59Z"
	}`

	job, err := DecodeGenerateJob(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, testTenant, job.TenantRef)
	assert.Equal(t, "custom", job.PeriodKey)
	require.NotNil(t, job.CustomStart)
	require.NotNil(t, job.CustomEnd)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *job.CustomStart)
}

func TestDecodeGenerateJob_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "period=month"},
		{name: "unknown field", input: `{"periodKey": "month", "tenant": "user:x"}`},
		{name: "bad tenant id", input: `{"tenantRef": {"kind": "user", "id": "nope"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGenerateJob(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestParseTenantRef(t *testing.T) {
	id := uuid.MustParse("6f1c0b8e-7d7e-4c6a-9f0e-3d2b1a0c9e8f")

	tenant, err := ParseTenantRef("organization:" + id.String())
	require.NoError(t, err)
	assert.Equal(t, report.OrganizationTenant(id), tenant)

	tenant, err = ParseTenantRef(" user:" + id.String())
	require.NoError(t, err)
	assert.Equal(t, report.UserTenant(id), tenant)

	for _, bad := range []string{"", id.String(), "team:" + id.String(), "user:not-a-uuid"} {
		_, err := ParseTenantRef(bad)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, bad)
	}
}

func TestGenerateJob_WindowRequest(t *testing.T) {
	t.Run("empty period means month", func(t *testing.T) {
		req, err := GenerateJob{TenantRef: testTenant}.WindowRequest()
		require.NoError(t, err)
		assert.Equal(t, report.PeriodMonth, req.Period)
	})

	t.Run("unknown period", func(t *testing.T) {
		_, err := GenerateJob{TenantRef: testTenant, PeriodKey: "decade"}.WindowRequest()
		assert.ErrorIs(t, err, shared.ErrInvalidWindow)
	})

	t.Run("unknown tenant kind", func(t *testing.T) {
		_, err := GenerateJob{TenantRef: report.TenantRef{Kind: "team", ID: uuid.New()}}.WindowRequest()
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestRunJob(t *testing.T) {
	repo := new(MockSourceRepository)
	expectEmpty(repo)
	svc := newTestService(repo, AggregateServiceConfig{}, nil)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	resp, err := svc.RunJob(context.Background(), GenerateJob{
		TenantRef:   testTenant,
		PeriodKey:   "custom",
		CustomStart: &start,
		CustomEnd:   &end,
	})

	require.NoError(t, err)
	assert.Equal(t, "custom", resp.Window.Period)
	assert.Equal(t, start, resp.Window.Start)
	assert.Equal(t, end, resp.Window.End)
	repo.AssertCalled(t, "FetchContracts", mock.Anything, testTenant, report.ReportWindow{Start: start, End: end, Period: report.PeriodCustom})
}
