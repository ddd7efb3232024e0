package router

import (
	"github.com/contractiq/backend/internal/infrastructure/auth"
	"github.com/contractiq/backend/internal/infrastructure/cache"
	"github.com/contractiq/backend/internal/infrastructure/logger"
	"github.com/contractiq/backend/internal/interfaces/http/handler"
	"github.com/contractiq/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds the HTTP surface settings
type EngineConfig struct {
	ServiceName    string
	TracingEnabled bool
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
}

// Dependencies are the collaborators the HTTP engine is built from.
// Meter and RateLimiter may be nil.
type Dependencies struct {
	Config        EngineConfig
	Logger        *zap.Logger
	Meter         metric.Meter
	JWTService    *auth.JWTService
	RateLimiter   cache.RateLimiter
	ReportHandler *handler.ReportHandler
	SystemHandler *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware chain and routes.
//
// Engine-wide order: RequestID, Recovery, access log, Tracing, SpanErrorMarker,
// HTTPMetrics, Secure, CORS. The versioned API adds JWT and span attributes,
// and the report group is rate limited per tenant.
func NewEngine(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(deps.Config.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: deps.Config.ServiceName,
		Enabled:     deps.Config.TracingEnabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(deps.Meter))
	engine.Use(middleware.Secure(deps.Config.Security))
	engine.Use(middleware.CORS(deps.Config.CORS))

	engine.GET("/health", deps.SystemHandler.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: deps.JWTService,
			Logger:     log,
		}),
		middleware.TracingAttributeInjector(),
	)

	reportRoutes := NewDomainGroup("report", "/reports")
	if deps.RateLimiter != nil {
		reportRoutes.Use(middleware.RateLimit(deps.RateLimiter, log))
	}
	reportRoutes.GET("/aggregate", deps.ReportHandler.GetAggregate)

	r.Register(reportRoutes)
	r.Setup()

	return engine
}
