package middleware

import (
	"net/http"

	"github.com/contractiq/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds client-supplied request IDs
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns the otelgin middleware, or a pass-through when disabled.
// Server spans are named "METHOD route", e.g. "GET /api/v1/reports/aggregate".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request and tenant attributes to the server
// span. It must run after both Tracing and JWT middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if requestID := GetRequestID(c); requestID != "" {
				span.SetAttributes(attribute.String("request_id", requestID))
			}
			if tenant, ok := GetTenant(c); ok {
				span.SetAttributes(attribute.String(telemetry.SpanAttrTenant, tenant.String()))
			}
			if userID := GetJWTUserID(c); userID != "" {
				span.SetAttributes(attribute.String("user_id", userID))
			}
		}
		c.Next()
	}
}

// SpanAttrStatusText carries the HTTP status text of 5xx server spans
const SpanAttrStatusText = "http.status_text"

// SpanErrorMarker marks the server span failed for 4xx and 5xx responses.
// Place it after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}

		span.SetAttributes(attribute.Int("http.status_code", status))

		// otelgin rewrites the status of 5xx spans after this returns, so the
		// text goes on an attribute instead of the status description
		if status >= http.StatusInternalServerError {
			span.SetAttributes(attribute.String(SpanAttrStatusText, http.StatusText(status)))
			span.SetStatus(codes.Error, "")
			return
		}

		description := "Client Error"
		if status == http.StatusTooManyRequests {
			description = "Rate Limited"
		}
		span.SetStatus(codes.Error, description)
	}
}
