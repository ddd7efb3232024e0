package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAggregateResponse_EmptyCollectionsEncodeAsArrays(t *testing.T) {
	agg := report.NewReportAggregate(testTenant, testWindow())
	agg.Contracts = nil
	agg.UsageSeries = nil

	data, err := json.Marshal(ToAggregateResponse(agg))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"contracts", "analyses", "risk_histogram", "usage_series"} {
		assert.Equal(t, []any{}, decoded[key], key)
	}
	assert.Equal(t, map[string]any{"usage": "ok", "cost": "ok", "risk": "ok"}, decoded["sections"])
}

func TestToAggregateResponse_MapsRecords(t *testing.T) {
	contractID := uuid.New()
	analysisID := uuid.New()
	created := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	cost := decimal.RequireFromString("0.125")
	tokens := int64(1200)

	agg := report.NewReportAggregate(testTenant, testWindow())
	agg.Contracts = []report.ContractRecord{{
		ID:           contractID,
		FileName:     "msa.pdf",
		ContractType: "MSA",
		CreatedAt:    created,
		LatestAnalysis: &report.AnalysisRef{
			ID: analysisID, Status: report.AnalysisStatusCompleted, CreatedAt: created.Add(time.Minute),
		},
	}}
	agg.Analyses = []report.AnalysisRecord{{
		ID:              analysisID,
		Contract:        report.ContractRef{ID: contractID, FileName: "msa.pdf", ContractType: "MSA"},
		Status:          report.AnalysisStatusCompleted,
		CreatedAt:       created.Add(time.Minute),
		EstimatedCost:   &cost,
		TokensUsed:      &tokens,
		RiskAnnotations: []report.RiskAnnotation{report.TypedRisk{Type: "ip", Severity: "high"}, nil},
	}}
	agg.Sections.MarkUnavailable(report.SourceCost)

	resp := ToAggregateResponse(agg)

	require.Len(t, resp.Contracts, 1)
	assert.Equal(t, contractID.String(), resp.Contracts[0].ID)
	require.NotNil(t, resp.Contracts[0].LatestAnalysis)
	assert.Equal(t, analysisID.String(), resp.Contracts[0].LatestAnalysis.ID)

	require.Len(t, resp.Analyses, 1)
	a := resp.Analyses[0]
	assert.Equal(t, contractID.String(), a.ContractID)
	assert.Equal(t, "MSA", a.ContractType)
	require.NotNil(t, a.EstimatedCost)
	assert.InDelta(t, 0.125, *a.EstimatedCost, 1e-9)
	assert.Equal(t, &tokens, a.TokensUsed)
	assert.Nil(t, a.ProcessingTimeMs)
	assert.Equal(t, []RiskResponse{{Category: "ip", Severity: "high"}}, a.Risks)

	assert.Equal(t, report.SectionUnavailable, resp.Sections.Cost)
	assert.Equal(t, "organization", resp.Tenant.Kind)
	assert.Equal(t, testTenant.ID.String(), resp.Tenant.ID)
}
