package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/contractiq/backend/internal/infrastructure/cache"
	"github.com/contractiq/backend/internal/infrastructure/logger"
	"github.com/contractiq/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit limits requests per report tenant, falling back to the client IP
// for unauthenticated requests. It must run after JWT middleware.
// A limiter error lets the request through.
func RateLimit(limiter cache.RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return RateLimitByKey(limiter, tenantOrIPKey, log)
}

// RateLimitByKey returns a rate limiting middleware with a custom key extractor
func RateLimitByKey(limiter cache.RateLimiter, keyFunc func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFunc(c)

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.GetGinLogger(c).Warn("Rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(decision.ResetAt)))
			log.Debug("Rate limit exceeded", zap.String("key", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many report requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}

		c.Next()
	}
}

func tenantOrIPKey(c *gin.Context) string {
	if tenant, ok := GetTenant(c); ok {
		return tenant.String()
	}
	return "ip:" + c.ClientIP()
}

func retryAfterSeconds(resetAt time.Time) int {
	secs := int(math.Ceil(time.Until(resetAt).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
