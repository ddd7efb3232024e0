package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantKind distinguishes personal accounts from organizations
type TenantKind string

const (
	TenantUser         TenantKind = "user"
	TenantOrganization TenantKind = "organization"
)

// TenantRef identifies the owner whose data a report is scoped to
type TenantRef struct {
	Kind TenantKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// UserTenant returns a TenantRef for a personal account
func UserTenant(id uuid.UUID) TenantRef {
	return TenantRef{Kind: TenantUser, ID: id}
}

// OrganizationTenant returns a TenantRef for an organization
func OrganizationTenant(id uuid.UUID) TenantRef {
	return TenantRef{Kind: TenantOrganization, ID: id}
}

// IsZero reports whether the ref is unset
func (t TenantRef) IsZero() bool {
	return t.ID == uuid.Nil
}

// String returns "kind:id"
func (t TenantRef) String() string {
	return string(t.Kind) + ":" + t.ID.String()
}

// Analysis statuses as written by the upstream analysis pipeline
const (
	AnalysisStatusPending    = "PENDING"
	AnalysisStatusProcessing = "PROCESSING"
	AnalysisStatusCompleted  = "COMPLETED"
	AnalysisStatusFailed     = "FAILED"
)

// AnalysisRef is the minimal view of a contract's latest analysis
type AnalysisRef struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ContractRecord is a read-only snapshot of a contract for reporting
type ContractRecord struct {
	ID             uuid.UUID    `json:"id"`
	FileName       string       `json:"file_name"`
	ContractType   string       `json:"contract_type"`
	CreatedAt      time.Time    `json:"created_at"`
	LatestAnalysis *AnalysisRef `json:"latest_analysis,omitempty"`
}

// ContractRef carries the parent contract fields shown next to an analysis
type ContractRef struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"file_name"`
	ContractType string    `json:"contract_type"`
}

// AnalysisRecord is a read-only snapshot of an analysis result.
// Metric fields are nil when the pipeline did not report them.
type AnalysisRecord struct {
	ID               uuid.UUID        `json:"id"`
	Contract         ContractRef      `json:"contract"`
	Status           string           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	ProcessingTimeMs *int64           `json:"processing_time_ms,omitempty"`
	ConfidenceScore  *float64         `json:"confidence_score,omitempty"`
	EstimatedCost    *decimal.Decimal `json:"estimated_cost,omitempty"`
	TokensUsed       *int64           `json:"tokens_used,omitempty"`
	RiskAnnotations  []RiskAnnotation `json:"-"`
}

// UsageTuple is a usage count grouped by the store on (action, occurred_at)
type UsageTuple struct {
	Action     string
	OccurredAt time.Time
	Count      int64
}

// CostSummary aggregates cost and performance over analyses that carry a cost.
// The zero value is the summary of an empty set.
type CostSummary struct {
	Count               int64           `json:"count"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	AverageCost         decimal.Decimal `json:"average_cost"`
	TotalTokens         int64           `json:"total_tokens"`
	AvgProcessingTimeMs float64         `json:"avg_processing_time_ms"`
	AvgConfidence       float64         `json:"avg_confidence"`
}

// RiskSample holds only what the risk reducer needs from an analysis
type RiskSample struct {
	AnalysisID uuid.UUID
	CreatedAt  time.Time
	Payload    []byte
}

// DefaultRiskSampleLimit caps how many analyses feed the risk histogram
const DefaultRiskSampleLimit = 100
