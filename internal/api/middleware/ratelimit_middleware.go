// Package middleware contains HTTP middleware for the API.
package middleware

import (
	"net/http"
	"strconv"

	"castlane.dev/signcast/backend/internal/db/redis"
	"castlane.dev/signcast/backend/internal/utils"
)

// RateLimitMiddleware enforces per-client request limits backed by Redis.
type RateLimitMiddleware struct {
	limiter *redis.RateLimiter
	limits  map[string]redis.RateLimit
	logger  *utils.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware with the given
// named limits.
func NewRateLimitMiddleware(limiter *redis.RateLimiter, limits map[string]redis.RateLimit, logger *utils.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limits:  limits,
		logger:  logger.Named("ratelimit_middleware"),
	}
}

// Limit returns a middleware enforcing the named rate limit, keyed by the
// client IP. Unknown limit names and Redis failures let requests through.
func (m *RateLimitMiddleware) Limit(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, ok := m.limits[name]
			if !ok {
				m.logger.Warn("Unknown rate limit", "name", name)
				next.ServeHTTP(w, r)
				return
			}

			identifier := utils.GetRequestIP(r)

			result, err := m.limiter.Allow(r.Context(), limit, identifier)
			if err != nil {
				m.logger.Warn("Rate limit check failed", "name", name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				utils.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
