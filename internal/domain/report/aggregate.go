package report

import "time"

// Source names one of the record sets a report is assembled from
type Source string

const (
	SourceContracts Source = "contracts"
	SourceAnalyses  Source = "analyses"
	SourceUsage     Source = "usage"
	SourceCost      Source = "cost"
	SourceRisk      Source = "risk"
)

// Required reports whether a report is meaningless without the source
func (s Source) Required() bool {
	return s == SourceContracts || s == SourceAnalyses
}

// SectionStatus tells consumers whether a section reflects real data
type SectionStatus string

const (
	SectionOK          SectionStatus = "ok"
	SectionUnavailable SectionStatus = "unavailable"
)

// SectionAvailability records the status of each optional section.
// An unavailable section is empty because its fetch failed, not because
// there was no activity.
type SectionAvailability struct {
	Usage SectionStatus `json:"usage"`
	Cost  SectionStatus `json:"cost"`
	Risk  SectionStatus `json:"risk"`
}

// AllAvailable returns availability with every section ok
func AllAvailable() SectionAvailability {
	return SectionAvailability{Usage: SectionOK, Cost: SectionOK, Risk: SectionOK}
}

// MarkUnavailable flags the section backed by source
func (a *SectionAvailability) MarkUnavailable(source Source) {
	switch source {
	case SourceUsage:
		a.Usage = SectionUnavailable
	case SourceCost:
		a.Cost = SectionUnavailable
	case SourceRisk:
		a.Risk = SectionUnavailable
	}
}

// Degraded returns the sources whose sections are unavailable
func (a SectionAvailability) Degraded() []Source {
	var out []Source
	if a.Usage == SectionUnavailable {
		out = append(out, SourceUsage)
	}
	if a.Cost == SectionUnavailable {
		out = append(out, SourceCost)
	}
	if a.Risk == SectionUnavailable {
		out = append(out, SourceRisk)
	}
	return out
}

// ReportAggregate is the report-ready value handed to renderers, exporters
// and schedulers. It is built fresh per request and never persisted.
type ReportAggregate struct {
	Tenant        TenantRef            `json:"tenant"`
	Window        ReportWindow         `json:"window"`
	Contracts     []ContractRecord     `json:"contracts"`
	Analyses      []AnalysisRecord     `json:"analyses"`
	CostSummary   CostSummary          `json:"cost_summary"`
	RiskHistogram []RiskHistogramEntry `json:"risk_histogram"`
	UsageSeries   UsageTimeSeries      `json:"usage_series"`
	Sections      SectionAvailability  `json:"sections"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// NewReportAggregate returns an aggregate with empty, non-nil collections
func NewReportAggregate(tenant TenantRef, window ReportWindow) *ReportAggregate {
	return &ReportAggregate{
		Tenant:        tenant,
		Window:        window,
		Contracts:     []ContractRecord{},
		Analyses:      []AnalysisRecord{},
		RiskHistogram: []RiskHistogramEntry{},
		UsageSeries:   UsageTimeSeries{},
		Sections:      AllAvailable(),
	}
}
