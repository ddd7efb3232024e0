package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/shared"
	"github.com/contractiq/backend/internal/infrastructure/logger"
	"github.com/contractiq/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AggregateServiceConfig tunes report assembly
type AggregateServiceConfig struct {
	// FetchTimeout bounds each source fetch independently; zero means no
	// per-fetch bound beyond the caller's context
	FetchTimeout    time.Duration
	RiskSampleLimit int
	WindowPolicy    report.CustomWindowPolicy
}

// DefaultAggregateServiceConfig returns the defaults used when config is empty
func DefaultAggregateServiceConfig() AggregateServiceConfig {
	return AggregateServiceConfig{
		FetchTimeout:    5 * time.Second,
		RiskSampleLimit: report.DefaultRiskSampleLimit,
		WindowPolicy:    report.CustomWindowFallbackMonth,
	}
}

// ReportAggregateService assembles report aggregates from the record store.
// It only reads: no writes, no transactions, and nothing is cached between
// calls.
type ReportAggregateService struct {
	sources report.SourceRepository
	config  AggregateServiceConfig
	metrics *telemetry.ReportMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// ServiceOption customizes a ReportAggregateService
type ServiceOption func(*ReportAggregateService)

// WithMetrics records assembly metrics on m
func WithMetrics(m *telemetry.ReportMetrics) ServiceOption {
	return func(s *ReportAggregateService) {
		s.metrics = m
	}
}

// WithClock replaces time.Now as the anchor for resolving windows
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ReportAggregateService) {
		s.now = now
	}
}

// NewReportAggregateService creates a new ReportAggregateService
func NewReportAggregateService(
	sources report.SourceRepository,
	cfg AggregateServiceConfig,
	log *zap.Logger,
	opts ...ServiceOption,
) *ReportAggregateService {
	defaults := DefaultAggregateServiceConfig()
	if cfg.RiskSampleLimit <= 0 {
		cfg.RiskSampleLimit = defaults.RiskSampleLimit
	}
	if !cfg.WindowPolicy.IsValid() {
		cfg.WindowPolicy = defaults.WindowPolicy
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &ReportAggregateService{
		sources: sources,
		config:  cfg,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate validates and resolves the requested window, assembles the
// aggregate and maps it to the response DTO
func (s *ReportAggregateService) Generate(ctx context.Context, tenant report.TenantRef, req report.WindowRequest) (*ReportAggregateResponse, error) {
	if tenant.IsZero() {
		return nil, shared.ErrUnauthorized.WithMessage("report requires a tenant")
	}
	if err := req.Validate(s.config.WindowPolicy); err != nil {
		s.metrics.IncFailure(ctx, errorCode(err))
		return nil, err
	}

	window := req.Resolve(s.now())
	agg, err := s.Assemble(ctx, tenant, window)
	if err != nil {
		return nil, err
	}
	return ToAggregateResponse(agg), nil
}

// ===================== Assembly =====================

// fetchResults holds what each source returned. Every field is written by
// exactly one goroutine and read only after the group finishes.
type fetchResults struct {
	contracts []report.ContractRecord
	analyses  []report.AnalysisRecord
	usage     []report.UsageTuple
	cost      report.CostSummary
	risk      []report.RiskSample

	mu       sync.Mutex
	sections report.SectionAvailability
}

func (r *fetchResults) markUnavailable(source report.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections.MarkUnavailable(source)
}

// Assemble fetches all five sources concurrently and reduces them into one
// aggregate. A failed required source fails the call with SOURCE_UNAVAILABLE;
// a failed optional source leaves its section empty and marked unavailable.
// If ctx ends first the call fails with REPORT_TIMEOUT and no partial
// aggregate is returned.
func (s *ReportAggregateService) Assemble(ctx context.Context, tenant report.TenantRef, window report.ReportWindow) (*report.ReportAggregate, error) {
	started := time.Now()
	period := string(window.Period)

	ctx, span := telemetry.StartSpan(ctx, "report.assemble",
		attribute.String(telemetry.SpanAttrTenant, tenant.String()),
		attribute.String(telemetry.SpanAttrPeriod, period),
	)
	defer span.End()

	log := s.logger.With(
		zap.String("tenant", tenant.String()),
		zap.String("period", period),
	)
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		log = log.With(zap.String("request_id", requestID))
	}

	results := &fetchResults{sections: report.AllAvailable()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.fetch(gctx, report.SourceContracts, results, log, func(ctx context.Context) error {
			rows, err := s.sources.FetchContracts(ctx, tenant, window)
			if err == nil {
				results.contracts = rows
			}
			return err
		})
	})
	g.Go(func() error {
		return s.fetch(gctx, report.SourceAnalyses, results, log, func(ctx context.Context) error {
			rows, err := s.sources.FetchAnalyses(ctx, tenant, window)
			if err == nil {
				results.analyses = rows
			}
			return err
		})
	})
	g.Go(func() error {
		return s.fetch(gctx, report.SourceUsage, results, log, func(ctx context.Context) error {
			rows, err := s.sources.FetchUsage(ctx, tenant, window)
			if err == nil {
				results.usage = rows
			}
			return err
		})
	})
	g.Go(func() error {
		return s.fetch(gctx, report.SourceCost, results, log, func(ctx context.Context) error {
			summary, err := s.sources.FetchCostSummary(ctx, tenant, window)
			if err == nil {
				results.cost = summary
			}
			return err
		})
	})
	g.Go(func() error {
		return s.fetch(gctx, report.SourceRisk, results, log, func(ctx context.Context) error {
			rows, err := s.sources.FetchRiskSamples(ctx, tenant, window, s.config.RiskSampleLimit)
			if err == nil {
				results.risk = rows
			}
			return err
		})
	})

	err := g.Wait()

	// the caller's deadline takes precedence over whatever the fetches saw
	if ctxErr := ctx.Err(); ctxErr != nil {
		timeoutErr := shared.ErrReportTimeout.Wrap(ctxErr)
		telemetry.RecordError(span, timeoutErr)
		s.metrics.RecordAssemble(ctx, time.Since(started), period, telemetry.OutcomeTimeout)
		s.metrics.IncFailure(ctx, timeoutErr.Code)
		log.Warn("Report assembly abandoned", zap.Error(ctxErr))
		return nil, timeoutErr
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordAssemble(ctx, time.Since(started), period, telemetry.OutcomeError)
		s.metrics.IncFailure(ctx, errorCode(err))
		log.Error("Report assembly failed", zap.Error(err))
		return nil, err
	}

	agg := report.NewReportAggregate(tenant, window)
	if results.contracts != nil {
		agg.Contracts = results.contracts
	}
	if results.analyses != nil {
		agg.Analyses = results.analyses
	}
	agg.CostSummary = results.cost
	agg.RiskHistogram = report.ReduceRiskTaxonomy(results.risk)
	agg.UsageSeries = report.BuildUsageSeries(results.usage, window.Location())
	agg.Sections = results.sections
	agg.GeneratedAt = s.now()

	outcome := telemetry.OutcomeOK
	if degraded := agg.Sections.Degraded(); len(degraded) > 0 {
		outcome = telemetry.OutcomeDegraded
		names := make([]string, len(degraded))
		for i, d := range degraded {
			names[i] = string(d)
		}
		span.SetAttributes(attribute.StringSlice(telemetry.SpanAttrDegraded, names))
	}
	telemetry.SetOK(span)
	s.metrics.RecordAssemble(ctx, time.Since(started), period, outcome)

	log.Debug("Report assembled",
		zap.Int("contracts", len(agg.Contracts)),
		zap.Int("analyses", len(agg.Analyses)),
		zap.Int64("costed_analyses", agg.CostSummary.Count),
		zap.Int("risk_categories", len(agg.RiskHistogram)),
		zap.Int("usage_days", len(agg.UsageSeries)),
		zap.Duration("duration", time.Since(started)),
	)
	return agg, nil
}

// fetch runs one source fetch under its own timeout and span. Required
// sources return their error to the group, which cancels the siblings.
// Optional sources swallow the error and degrade their section.
func (s *ReportAggregateService) fetch(
	gctx context.Context,
	source report.Source,
	results *fetchResults,
	log *zap.Logger,
	fn func(ctx context.Context) error,
) error {
	ctx, span := telemetry.StartSpan(gctx, "report.fetch."+string(source),
		attribute.String(telemetry.SpanAttrSource, string(source)),
	)
	defer span.End()

	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	started := time.Now()
	err := fn(ctx)
	elapsed := time.Since(started)

	if err == nil {
		telemetry.SetOK(span)
		s.metrics.RecordFetch(gctx, string(source), elapsed, telemetry.OutcomeOK)
		return nil
	}

	outcome := telemetry.OutcomeError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		outcome = telemetry.OutcomeTimeout
	}
	telemetry.RecordError(span, err)
	s.metrics.RecordFetch(gctx, string(source), elapsed, outcome)

	// the group is already failing or the caller gave up; the outcome is
	// decided by Assemble, not by this fetch
	if gctx.Err() != nil {
		return gctx.Err()
	}

	if source.Required() {
		return shared.ErrSourceUnavailable.
			WithMessage(fmt.Sprintf("%s are unavailable", source)).
			Wrap(err)
	}

	results.markUnavailable(source)
	s.metrics.IncSectionDegraded(gctx, string(source))
	log.Warn("Optional report source failed, section degraded",
		zap.String("source", string(source)),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
	return nil
}

// errorCode returns the domain error code of err, or "INTERNAL"
func errorCode(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "INTERNAL"
}
