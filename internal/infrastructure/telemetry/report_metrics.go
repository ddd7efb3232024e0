package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Outcomes recorded on report duration histograms
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeDegraded = "degraded"
)

// ReportMetrics holds the report pipeline's instruments.
// A nil *ReportMetrics is valid and records nothing.
type ReportMetrics struct {
	assembleDuration *Histogram
	fetchDuration    *Histogram
	sectionDegraded  *Counter
	failures         *Counter
	usageRecorded    *Counter
}

// NewReportMetrics creates the report instruments on meter.
func NewReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	assembleDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "ciq_report_assemble_duration_seconds",
		Description: "Time to assemble one report aggregate",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	fetchDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "ciq_report_fetch_duration_seconds",
		Description: "Time spent in one report source fetch",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	sectionDegraded, err := NewCounter(meter,
		"ciq_report_section_degraded_total",
		"Report sections returned as unavailable because their source failed",
		"{section}",
	)
	if err != nil {
		return nil, err
	}
	failures, err := NewCounter(meter,
		"ciq_report_failures_total",
		"Report requests that failed",
		"{report}",
	)
	if err != nil {
		return nil, err
	}
	usageRecorded, err := NewCounter(meter,
		"ciq_usage_events_recorded_total",
		"Usage events written to the usage log",
		"{event}",
	)
	if err != nil {
		return nil, err
	}

	return &ReportMetrics{
		assembleDuration: assembleDuration,
		fetchDuration:    fetchDuration,
		sectionDegraded:  sectionDegraded,
		failures:         failures,
		usageRecorded:    usageRecorded,
	}, nil
}

// RecordAssemble records one assembly's latency and outcome.
func (m *ReportMetrics) RecordAssemble(ctx context.Context, d time.Duration, period, outcome string) {
	if m == nil {
		return
	}
	m.assembleDuration.RecordDuration(ctx, d, AttrPeriod.String(period), AttrOutcome.String(outcome))
}

// RecordFetch records one source fetch's latency and outcome.
func (m *ReportMetrics) RecordFetch(ctx context.Context, source string, d time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.fetchDuration.RecordDuration(ctx, d, AttrSource.String(source), AttrOutcome.String(outcome))
}

// IncSectionDegraded counts an optional section served as unavailable.
func (m *ReportMetrics) IncSectionDegraded(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.sectionDegraded.Inc(ctx, AttrSource.String(source))
}

// IncFailure counts a failed report by reason (an error code).
func (m *ReportMetrics) IncFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.failures.Inc(ctx, AttrReason.String(reason))
}

// AddUsageRecorded counts usage events flushed to storage.
func (m *ReportMetrics) AddUsageRecorded(ctx context.Context, n int, action string) {
	if m == nil || n <= 0 {
		return
	}
	m.usageRecorded.Add(ctx, int64(n), AttrAction.String(action))
}
