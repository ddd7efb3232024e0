//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/usage"
	"github.com/contractiq/backend/internal/infrastructure/migration"
	"github.com/contractiq/backend/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a throwaway PostgreSQL container and applies the
// embedded migrations to it
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("contractiq_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migration.FromFS(migrations.FS), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestGormReportSourceRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	db := newPostgresTestDB(t)
	f := reportFixture{t: t, db: db}
	repo := NewGormReportSourceRepository(db)
	tenant := report.OrganizationTenant(uuid.New())
	window := marchWindow()

	f.contract(tenant, "february.pdf", time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC))
	march := f.contract(tenant, "march.pdf", time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))
	f.analysis(march, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		withCost("0.120000", 900, 1500, 0.92),
		withRisks(`[{"type":"financial"},{"category":"legal"},{"severity":"low"}]`))
	f.analysis(march, time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC),
		withCost("0.080000", 600, 2500, 0.88))
	f.analysis(march, time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC),
		withStatus(report.AnalysisStatusFailed))

	event, err := usage.NewEvent(tenant, usage.ActionReportGenerated, time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, NewGormUsageEventRepository(db).AppendBatch(ctx, []*usage.Event{event}))

	contracts, err := repo.FetchContracts(ctx, tenant, window)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	require.NotNil(t, contracts[0].LatestAnalysis)
	assert.Equal(t, report.AnalysisStatusFailed, contracts[0].LatestAnalysis.Status)

	analyses, err := repo.FetchAnalyses(ctx, tenant, window)
	require.NoError(t, err)
	assert.Len(t, analyses, 3)

	summary, err := repo.FetchCostSummary(ctx, tenant, window)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.True(t, decimal.RequireFromString("0.2").Equal(summary.TotalCost), "total %s", summary.TotalCost)
	assert.True(t, decimal.RequireFromString("0.1").Equal(summary.AverageCost), "average %s", summary.AverageCost)
	assert.Equal(t, int64(1500), summary.TotalTokens)
	assert.InDelta(t, 2000, summary.AvgProcessingTimeMs, 0.001)

	samples, err := repo.FetchRiskSamples(ctx, tenant, window, report.DefaultRiskSampleLimit)
	require.NoError(t, err)
	assert.Equal(t, []report.RiskHistogramEntry{
		{Category: "financial", Count: 1},
		{Category: "legal", Count: 1},
		{Category: report.OtherRiskCategory, Count: 1},
	}, report.ReduceRiskTaxonomy(samples))

	tuples, err := repo.FetchUsage(ctx, tenant, window)
	require.NoError(t, err)
	series := report.BuildUsageSeries(tuples, time.UTC)
	assert.Equal(t, int64(1), series.Total(usage.ActionReportGenerated))
}
