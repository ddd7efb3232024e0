package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportSourceRepository implements report.SourceRepository using GORM.
// Every method is a single read-only query, except FetchContracts which runs
// a second query for the latest analysis of each contract.
type GormReportSourceRepository struct {
	db *gorm.DB
}

// NewGormReportSourceRepository creates a new GormReportSourceRepository
func NewGormReportSourceRepository(db *gorm.DB) *GormReportSourceRepository {
	return &GormReportSourceRepository{db: db}
}

var _ report.SourceRepository = (*GormReportSourceRepository)(nil)

// ownedBy scopes a query to rows owned by tenant. Organization tenants see
// their workspace; user tenants see only their personal rows.
func ownedBy(alias string, tenant report.TenantRef) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenant.Kind == report.TenantOrganization {
			return db.Where(alias+".organization_id = ?", tenant.ID)
		}
		return db.Where(alias+".user_id = ? AND "+alias+".organization_id IS NULL", tenant.ID)
	}
}

// inWindow filters column to the inclusive window bounds
func inWindow(column string, window report.ReportWindow) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" BETWEEN ? AND ?", window.Start, window.End)
	}
}

// ownedAnalyses starts a query over analyses whose contract is owned by
// tenant and not deleted
func (r *GormReportSourceRepository) ownedAnalyses(ctx context.Context, tenant report.TenantRef, window report.ReportWindow) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("contract_analyses a").
		Joins("JOIN contracts c ON c.id = a.contract_id").
		Where("c.deleted_at IS NULL").
		Scopes(ownedBy("c", tenant), inWindow("a.created_at", window))
}

// FetchContracts returns contracts created inside the window, newest first
func (r *GormReportSourceRepository) FetchContracts(ctx context.Context, tenant report.TenantRef, window report.ReportWindow) ([]report.ContractRecord, error) {
	type contractRow struct {
		ID           uuid.UUID
		FileName     string
		ContractType string
		CreatedAt    time.Time
	}

	var rows []contractRow
	err := r.db.WithContext(ctx).
		Table("contracts c").
		Select("c.id, c.file_name, c.contract_type, c.created_at").
		Where("c.deleted_at IS NULL").
		Scopes(ownedBy("c", tenant), inWindow("c.created_at", window)).
		Order("c.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch contracts: %w", err)
	}

	records := make([]report.ContractRecord, len(rows))
	if len(rows) == 0 {
		return records, nil
	}

	latest, err := r.latestAnalyses(ctx, tenant, window)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		records[i] = report.ContractRecord{
			ID:             row.ID,
			FileName:       row.FileName,
			ContractType:   row.ContractType,
			CreatedAt:      row.CreatedAt,
			LatestAnalysis: latest[row.ID],
		}
	}
	return records, nil
}

// latestAnalyses returns the most recent analysis of each contract that
// FetchContracts selects. Ranking happens in the store so only one row per
// contract is read.
func (r *GormReportSourceRepository) latestAnalyses(ctx context.Context, tenant report.TenantRef, window report.ReportWindow) (map[uuid.UUID]*report.AnalysisRef, error) {
	type analysisRow struct {
		ID         uuid.UUID
		ContractID uuid.UUID
		Status     string
		CreatedAt  time.Time
	}

	ranked := r.db.
		Table("contract_analyses a").
		Select("a.id, a.contract_id, a.status, a.created_at, "+
			"ROW_NUMBER() OVER (PARTITION BY a.contract_id ORDER BY a.created_at DESC, a.id DESC) AS rn").
		Joins("JOIN contracts c ON c.id = a.contract_id").
		Where("c.deleted_at IS NULL").
		Scopes(ownedBy("c", tenant), inWindow("c.created_at", window))

	var rows []analysisRow
	err := r.db.WithContext(ctx).
		Table("(?) AS latest", ranked).
		Select("latest.id, latest.contract_id, latest.status, latest.created_at").
		Where("latest.rn = 1").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch latest analyses: %w", err)
	}

	latest := make(map[uuid.UUID]*report.AnalysisRef, len(rows))
	for _, row := range rows {
		latest[row.ContractID] = &report.AnalysisRef{
			ID:        row.ID,
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
		}
	}
	return latest, nil
}

// FetchAnalyses returns analyses created inside the window, newest first
func (r *GormReportSourceRepository) FetchAnalyses(ctx context.Context, tenant report.TenantRef, window report.ReportWindow) ([]report.AnalysisRecord, error) {
	type analysisRow struct {
		ID               uuid.UUID
		Status           string
		CreatedAt        time.Time
		ProcessingTimeMs *int64
		ConfidenceScore  *float64
		EstimatedCost    *decimal.Decimal
		TokensUsed       *int64
		RiskPayload      []byte
		ContractID       uuid.UUID
		FileName         string
		ContractType     string
	}

	var rows []analysisRow
	err := r.ownedAnalyses(ctx, tenant, window).
		Select(`
			a.id, a.status, a.created_at,
			a.processing_time_ms, a.confidence_score, a.estimated_cost, a.tokens_used,
			a.risk_payload,
			c.id AS contract_id, c.file_name, c.contract_type
		`).
		Order("a.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch analyses: %w", err)
	}

	records := make([]report.AnalysisRecord, len(rows))
	for i, row := range rows {
		records[i] = report.AnalysisRecord{
			ID: row.ID,
			Contract: report.ContractRef{
				ID:           row.ContractID,
				FileName:     row.FileName,
				ContractType: row.ContractType,
			},
			Status:           row.Status,
			CreatedAt:        row.CreatedAt,
			ProcessingTimeMs: row.ProcessingTimeMs,
			ConfidenceScore:  row.ConfidenceScore,
			EstimatedCost:    row.EstimatedCost,
			TokensUsed:       row.TokensUsed,
			RiskAnnotations:  report.ParseRiskAnnotations(row.RiskPayload),
		}
	}
	return records, nil
}

// FetchUsage returns usage counts grouped by (action, occurred_at)
func (r *GormReportSourceRepository) FetchUsage(ctx context.Context, tenant report.TenantRef, window report.ReportWindow) ([]report.UsageTuple, error) {
	type usageRow struct {
		Action     string
		OccurredAt time.Time
		Count      int64
	}

	var rows []usageRow
	err := r.db.WithContext(ctx).
		Table("usage_events u").
		Select("u.action, u.occurred_at, COUNT(*) AS count").
		Scopes(ownedBy("u", tenant), inWindow("u.occurred_at", window)).
		Group("u.action, u.occurred_at").
		Order("u.occurred_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch usage: %w", err)
	}

	tuples := make([]report.UsageTuple, len(rows))
	for i, row := range rows {
		tuples[i] = report.UsageTuple{
			Action:     row.Action,
			OccurredAt: row.OccurredAt,
			Count:      row.Count,
		}
	}
	return tuples, nil
}

// FetchCostSummary aggregates analyses that carry an estimated cost.
// Analyses without a cost are excluded from every figure, not counted as zero.
func (r *GormReportSourceRepository) FetchCostSummary(ctx context.Context, tenant report.TenantRef, window report.ReportWindow) (report.CostSummary, error) {
	type costResult struct {
		Count               int64
		TotalCost           decimal.Decimal
		AverageCost         decimal.Decimal
		TotalTokens         int64
		AvgProcessingTimeMs float64
		AvgConfidence       float64
	}

	var result costResult
	err := r.ownedAnalyses(ctx, tenant, window).
		Select(`
			COUNT(a.id) AS count,
			COALESCE(SUM(a.estimated_cost), 0) AS total_cost,
			COALESCE(AVG(a.estimated_cost), 0) AS average_cost,
			COALESCE(SUM(a.tokens_used), 0) AS total_tokens,
			COALESCE(AVG(a.processing_time_ms), 0) AS avg_processing_time_ms,
			COALESCE(AVG(a.confidence_score), 0) AS avg_confidence
		`).
		Where("a.estimated_cost IS NOT NULL").
		Scan(&result).Error
	if err != nil {
		return report.CostSummary{}, fmt.Errorf("fetch cost summary: %w", err)
	}

	return report.CostSummary{
		Count:               result.Count,
		TotalCost:           result.TotalCost,
		AverageCost:         result.AverageCost,
		TotalTokens:         result.TotalTokens,
		AvgProcessingTimeMs: result.AvgProcessingTimeMs,
		AvgConfidence:       result.AvgConfidence,
	}, nil
}

// FetchRiskSamples returns at most limit completed analyses, newest first,
// with only the columns the risk reducer reads
func (r *GormReportSourceRepository) FetchRiskSamples(ctx context.Context, tenant report.TenantRef, window report.ReportWindow, limit int) ([]report.RiskSample, error) {
	if limit <= 0 {
		limit = report.DefaultRiskSampleLimit
	}

	type sampleRow struct {
		AnalysisID uuid.UUID
		CreatedAt  time.Time
		Payload    []byte
	}

	var rows []sampleRow
	err := r.ownedAnalyses(ctx, tenant, window).
		Select("a.id AS analysis_id, a.created_at, a.risk_payload AS payload").
		Where("a.status = ?", report.AnalysisStatusCompleted).
		Order("a.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch risk samples: %w", err)
	}

	samples := make([]report.RiskSample, len(rows))
	for i, row := range rows {
		samples[i] = report.RiskSample{
			AnalysisID: row.AnalysisID,
			CreatedAt:  row.CreatedAt,
			Payload:    row.Payload,
		}
	}
	return samples, nil
}
