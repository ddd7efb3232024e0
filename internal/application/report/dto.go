package report

import (
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// ReportAggregateResponse is the JSON shape of a report aggregate
type ReportAggregateResponse struct {
	Tenant        TenantResponse             `json:"tenant"`
	Window        WindowResponse             `json:"window"`
	Contracts     []ContractResponse         `json:"contracts"`
	Analyses      []AnalysisResponse         `json:"analyses"`
	CostSummary   CostSummaryResponse        `json:"cost_summary"`
	RiskHistogram []RiskHistogramResponse    `json:"risk_histogram"`
	UsageSeries   []UsageDayResponse         `json:"usage_series"`
	Sections      report.SectionAvailability `json:"sections"`
	GeneratedAt   time.Time                  `json:"generated_at"`
}

// TenantResponse identifies the report owner
type TenantResponse struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// WindowResponse is the resolved reporting window
type WindowResponse struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// LatestAnalysisResponse is the most recent analysis of a contract
type LatestAnalysisResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ContractResponse represents a contract row in the report
type ContractResponse struct {
	ID             string                  `json:"id"`
	FileName       string                  `json:"file_name"`
	ContractType   string                  `json:"contract_type"`
	CreatedAt      time.Time               `json:"created_at"`
	LatestAnalysis *LatestAnalysisResponse `json:"latest_analysis,omitempty"`
}

// RiskResponse is one risk annotation of an analysis
type RiskResponse struct {
	Category string `json:"category"`
	Severity string `json:"severity,omitempty"`
}

// AnalysisResponse represents an analysis row in the report
type AnalysisResponse struct {
	ID               string         `json:"id"`
	ContractID       string         `json:"contract_id"`
	FileName         string         `json:"file_name"`
	ContractType     string         `json:"contract_type"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	ProcessingTimeMs *int64         `json:"processing_time_ms"`
	ConfidenceScore  *float64       `json:"confidence_score"`
	EstimatedCost    *float64       `json:"estimated_cost"`
	TokensUsed       *int64         `json:"tokens_used"`
	Risks            []RiskResponse `json:"risks"`
}

// CostSummaryResponse aggregates cost and performance over costed analyses
type CostSummaryResponse struct {
	Count               int64   `json:"count"`
	TotalCost           float64 `json:"total_cost"`
	AverageCost         float64 `json:"average_cost"`
	TotalTokens         int64   `json:"total_tokens"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
	AvgConfidence       float64 `json:"avg_confidence"`
}

// RiskHistogramResponse is one bar of the risk histogram
type RiskHistogramResponse struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// UsageDayResponse is one day of the usage time series
type UsageDayResponse struct {
	Day     string           `json:"day"`
	Actions map[string]int64 `json:"actions"`
}

// ToAggregateResponse maps an aggregate to its response. Collections are
// never nil so they encode as [] rather than null.
func ToAggregateResponse(agg *report.ReportAggregate) *ReportAggregateResponse {
	resp := &ReportAggregateResponse{
		Tenant: TenantResponse{
			Kind: string(agg.Tenant.Kind),
			ID:   agg.Tenant.ID.String(),
		},
		Window: WindowResponse{
			Period: string(agg.Window.Period),
			Start:  agg.Window.Start,
			End:    agg.Window.End,
		},
		Contracts:     make([]ContractResponse, len(agg.Contracts)),
		Analyses:      make([]AnalysisResponse, len(agg.Analyses)),
		CostSummary:   toCostSummaryResponse(agg.CostSummary),
		RiskHistogram: make([]RiskHistogramResponse, len(agg.RiskHistogram)),
		UsageSeries:   make([]UsageDayResponse, len(agg.UsageSeries)),
		Sections:      agg.Sections,
		GeneratedAt:   agg.GeneratedAt,
	}

	for i, c := range agg.Contracts {
		resp.Contracts[i] = ContractResponse{
			ID:           c.ID.String(),
			FileName:     c.FileName,
			ContractType: c.ContractType,
			CreatedAt:    c.CreatedAt,
		}
		if c.LatestAnalysis != nil {
			resp.Contracts[i].LatestAnalysis = &LatestAnalysisResponse{
				ID:        c.LatestAnalysis.ID.String(),
				Status:    c.LatestAnalysis.Status,
				CreatedAt: c.LatestAnalysis.CreatedAt,
			}
		}
	}

	for i, a := range agg.Analyses {
		risks := make([]RiskResponse, 0, len(a.RiskAnnotations))
		for _, r := range a.RiskAnnotations {
			if r == nil {
				continue
			}
			risks = append(risks, RiskResponse{Category: r.CategoryKey(), Severity: r.SeverityLevel()})
		}
		resp.Analyses[i] = AnalysisResponse{
			ID:               a.ID.String(),
			ContractID:       a.Contract.ID.String(),
			FileName:         a.Contract.FileName,
			ContractType:     a.Contract.ContractType,
			Status:           a.Status,
			CreatedAt:        a.CreatedAt,
			ProcessingTimeMs: a.ProcessingTimeMs,
			ConfidenceScore:  a.ConfidenceScore,
			EstimatedCost:    toFloat64Ptr(a.EstimatedCost),
			TokensUsed:       a.TokensUsed,
			Risks:            risks,
		}
	}

	for i, e := range agg.RiskHistogram {
		resp.RiskHistogram[i] = RiskHistogramResponse{Category: e.Category, Count: e.Count}
	}

	for i, d := range agg.UsageSeries {
		actions := make(map[string]int64, len(d.Actions))
		for action, n := range d.Actions {
			actions[action] = n
		}
		resp.UsageSeries[i] = UsageDayResponse{Day: d.Day, Actions: actions}
	}

	return resp
}

func toCostSummaryResponse(c report.CostSummary) CostSummaryResponse {
	return CostSummaryResponse{
		Count:               c.Count,
		TotalCost:           toFloat64(c.TotalCost),
		AverageCost:         toFloat64(c.AverageCost),
		TotalTokens:         c.TotalTokens,
		AvgProcessingTimeMs: c.AvgProcessingTimeMs,
		AvgConfidence:       c.AvgConfidence,
	}
}

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toFloat64Ptr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := toFloat64(*d)
	return &f
}
