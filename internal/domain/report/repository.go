package report

import "context"

// ContractFetcher reads contracts for reporting
type ContractFetcher interface {
	// FetchContracts returns non-deleted contracts owned by tenant created inside
	// window, newest first, each with its most recent analysis if any
	FetchContracts(ctx context.Context, tenant TenantRef, window ReportWindow) ([]ContractRecord, error)
}

// AnalysisFetcher reads analysis results for reporting
type AnalysisFetcher interface {
	// FetchAnalyses returns analyses owned by tenant created inside window,
	// newest first, joined with their parent contract's identity fields
	FetchAnalyses(ctx context.Context, tenant TenantRef, window ReportWindow) ([]AnalysisRecord, error)
}

// UsageEventFetcher reads usage events already grouped by the store
type UsageEventFetcher interface {
	// FetchUsage returns usage counts grouped by (action, occurred_at)
	FetchUsage(ctx context.Context, tenant TenantRef, window ReportWindow) ([]UsageTuple, error)
}

// CostAggregateFetcher computes cost and performance aggregates in the store
type CostAggregateFetcher interface {
	// FetchCostSummary aggregates only analyses with a non-null estimated cost
	FetchCostSummary(ctx context.Context, tenant TenantRef, window ReportWindow) (CostSummary, error)
}

// RiskSampleFetcher reads a bounded sample of completed analyses
type RiskSampleFetcher interface {
	// FetchRiskSamples returns at most limit completed analyses, newest first
	FetchRiskSamples(ctx context.Context, tenant TenantRef, window ReportWindow, limit int) ([]RiskSample, error)
}

// SourceRepository bundles every fetcher a report is assembled from
type SourceRepository interface {
	ContractFetcher
	AnalysisFetcher
	UsageEventFetcher
	CostAggregateFetcher
	RiskSampleFetcher
}
