package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	reportapp "github.com/contractiq/backend/internal/application/report"
	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/infrastructure/auth"
	"github.com/contractiq/backend/internal/infrastructure/cache"
	"github.com/contractiq/backend/internal/infrastructure/config"
	"github.com/contractiq/backend/internal/infrastructure/logger"
	"github.com/contractiq/backend/internal/infrastructure/persistence"
	"github.com/contractiq/backend/internal/infrastructure/telemetry"
	"github.com/contractiq/backend/internal/interfaces/http/handler"
	"github.com/contractiq/backend/internal/interfaces/http/middleware"
	"github.com/contractiq/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger for provider setup; replaced once the log bridge exists
	bootLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, lp.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting report service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

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
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	meter := mp.Meter(telemetry.TracerName)
	reportMetrics, err := telemetry.NewReportMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create report metrics", zap.Error(err))
	}

	sourceRepo := persistence.NewGormReportSourceRepository(db.DB)
	usageRepo := persistence.NewGormUsageEventRepository(db.DB)

	aggregateService := reportapp.NewReportAggregateService(sourceRepo, reportapp.AggregateServiceConfig{
		FetchTimeout:    cfg.Report.FetchTimeout,
		RiskSampleLimit: cfg.Report.RiskSampleLimit,
		WindowPolicy:    report.CustomWindowPolicy(cfg.Report.CustomWindowPolicy),
	}, log, reportapp.WithMetrics(reportMetrics))

	usageRecorder := reportapp.NewUsageRecorder(reportapp.UsageRecorderConfig{
		Enabled:       cfg.Report.UsageRecordingEnabled,
		BufferSize:    cfg.Report.UsageBufferSize,
		BatchSize:     cfg.Report.UsageBatchSize,
		FlushInterval: cfg.Report.UsageFlushInterval,
		WriteTimeout:  reportapp.DefaultUsageRecorderConfig().WriteTimeout,
	}, usageRepo, reportMetrics, log)
	usageRecorder.Start()

	rateLimiter, limiterCloser := cache.NewRateLimiter(cfg.Redis, cfg.Report.RateLimitRequests, cfg.Report.RateLimitWindow, log)
	defer func() {
		if err := limiterCloser.Close(); err != nil {
			log.Warn("Error closing rate limiter", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.App.Env == "production"

	engine := router.NewEngine(router.Dependencies{
		Config: router.EngineConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			TracingEnabled: cfg.Telemetry.Enabled,
			TrustedProxies: cfg.HTTP.TrustedProxies,
			CORS:           corsConfig,
			Security:       securityConfig,
		},
		Logger:        log,
		Meter:         meter,
		JWTService:    auth.NewJWTService(cfg.JWT),
		RateLimiter:   rateLimiter,
		ReportHandler: handler.NewReportHandler(aggregateService, usageRecorder, cfg.Report.RequestTimeout),
		SystemHandler: handler.NewSystemHandler(db, cfg.App.Name, telemetry.ServiceVersion),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Flush buffered usage events after the last request has finished
	if err := usageRecorder.Stop(shutdownCtx); err != nil {
		log.Error("Usage recorder did not drain", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Error("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
