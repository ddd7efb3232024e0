package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	reportapp "github.com/contractiq/backend/internal/application/report"
	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/shared"
	"github.com/contractiq/backend/internal/infrastructure/config"
	"github.com/contractiq/backend/internal/infrastructure/logger"
	"github.com/contractiq/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		tenant  string
		period  string
		start   string
		end     string
		jobPath string
		timeout time.Duration
		pretty  bool
	)

	flag.StringVar(&tenant, "tenant", "", "Tenant as kind:id, e.g. organization:6f1c0b8e-...")
	flag.StringVar(&period, "period", "month", "week, month, quarter, year or custom")
	flag.StringVar(&start, "start", "", "Custom window start (YYYY-MM-DD, local time)")
	flag.StringVar(&end, "end", "", "Custom window end (YYYY-MM-DD, local time, inclusive)")
	flag.StringVar(&jobPath, "job", "", "Read a JSON job from this file, or - for stdin; overrides the other window flags")
	flag.DurationVar(&timeout, "timeout", 0, "Deadline for the report (default: report.request_timeout)")
	flag.BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	flag.Usage = printUsage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the report, so logs go to stderr
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	job, err := buildJob(jobPath, tenant, period, start, end)
	if err != nil {
		fail(log, "Invalid job", err)
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	svc := reportapp.NewReportAggregateService(
		persistence.NewGormReportSourceRepository(db.DB),
		reportapp.AggregateServiceConfig{
			FetchTimeout:    cfg.Report.FetchTimeout,
			RiskSampleLimit: cfg.Report.RiskSampleLimit,
			WindowPolicy:    report.CustomWindowPolicy(cfg.Report.CustomWindowPolicy),
		},
		log,
	)

	if timeout == 0 {
		timeout = cfg.Report.RequestTimeout
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := svc.RunJob(ctx, job)
	if err != nil {
		fail(log, "Report generation failed", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(resp); err != nil {
		log.Fatal("Failed to write report", zap.Error(err))
	}
}

// buildJob reads a JSON job when jobPath is set, otherwise assembles one
// from the flags
func buildJob(jobPath, tenant, period, start, end string) (reportapp.GenerateJob, error) {
	if jobPath != "" {
		var r io.Reader = os.Stdin
		if jobPath != "-" {
			f, err := os.Open(jobPath)
			if err != nil {
				return reportapp.GenerateJob{}, err
			}
			defer f.Close()
			r = f
		}
		return reportapp.DecodeGenerateJob(r)
	}

	ref, err := reportapp.ParseTenantRef(tenant)
	if err != nil {
		return reportapp.GenerateJob{}, err
	}
	job := reportapp.GenerateJob{TenantRef: ref, PeriodKey: period}
	if start != "" {
		t, err := time.ParseInLocation(dateLayout, start, time.Local)
		if err != nil {
			return reportapp.GenerateJob{}, shared.ErrInvalidWindow.WithMessage("start: expected YYYY-MM-DD")
		}
		job.CustomStart = &t
	}
	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, time.Local)
		if err != nil {
			return reportapp.GenerateJob{}, shared.ErrInvalidWindow.WithMessage("end: expected YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		job.CustomEnd = &t
	}
	return job, nil
}

// fail logs err with its domain code and exits 2 for caller errors, 1 otherwise
func fail(log *zap.Logger, msg string, err error) {
	code := "INTERNAL"
	exit := 1
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		if errors.Is(err, shared.ErrInvalidInput) || errors.Is(err, shared.ErrInvalidWindow) {
			exit = 2
		}
	}
	log.Error(msg, zap.String("code", code), zap.Error(err))
	_ = log.Sync()
	os.Exit(exit)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Report Aggregate CLI

Usage:
  reportctl -tenant <kind:id> [-period month] [-start YYYY-MM-DD -end YYYY-MM-DD]
  reportctl -job <file|->

Flags:`)
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, `
Job format:
  {"tenantRef": {"kind": "organization", "id": "<uuid>"},
   "periodKey": "custom",
   "customStart": "2024-03-01T00:00:00Z",
   "customEnd": "2024-03-31T23:59:59Z"}

Examples:
  reportctl -tenant user:7f1d3c1e-8a43-4c57-9a8e-3b6f0f2a9d10 -period quarter -pretty
  echo '{"tenantRef":{"kind":"user","id":"..."},"periodKey":"week"}' | reportctl -job -`)
}
