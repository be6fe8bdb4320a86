// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file adapts the fixed-window limiter in internal/ratelimit to Gin.
// Each installed RateLimiter guards one operation (check, hold, waitlist)
// with its own budget, keyed per caller identity.
//
// Notes:
//   - Bucket state lives in whatever store the Limiter was built with: a
//     bounded in-memory cache for single-instance deployments, or Redis
//     when limits must hold across instances.
//   - A store failure lets the request through and logs a warning. The
//     limiter is abuse control, not an authorization mechanism.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-stay-holds/internal/observability"
	"github.com/tbourn/go-stay-holds/internal/ratelimit"
)

// keyFunc selects the identity used to key a rate-limit bucket.
//
// Implementations should return a stable string for the duration of a request
// (e.g., "user:<id>" or "ip:<addr>").
type keyFunc func(*gin.Context) string

// KeyByUserOrIP returns a keyFunc that prefers a user identity (from the Gin
// context under "userID", set by Identity) and falls back to the client IP.
//
// The resulting keys are prefixed to avoid collisions between user and IP
// namespaces (e.g., "user:abc123" vs "ip:203.0.113.7").
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if s := UserFrom(c); s != "" {
			return "user:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimiter enforces one operation's budget. Safe for concurrent use.
type RateLimiter struct {
	lim   *ratelimit.Limiter
	op    string
	limit ratelimit.Limit
	keyFn keyFunc
}

// NewRateLimiter binds a Limiter to an operation name and budget. A nil keyFn
// means KeyByUserOrIP.
func NewRateLimiter(l *ratelimit.Limiter, op string, limit ratelimit.Limit, keyFn keyFunc) *RateLimiter {
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	return &RateLimiter{lim: l, op: op, limit: limit, keyFn: keyFn}
}

// Handler returns a Gin middleware that enforces the budget.
//
// Allowed requests carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (unix seconds). Denied requests get:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 42
//	{
//	  "request_id":  "<uuid>",
//	  "code":        "rate_limited",
//	  "message":     "rate limit exceeded",
//	  "retry_after": 42
//	}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := rl.lim.Check(c.Request.Context(), rl.limit, ratelimit.Key(rl.op, rl.keyFn(c)))
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("operation", rl.op).Msg("rate limiter unavailable; allowing request")
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if res.Allowed {
			c.Next()
			return
		}

		retry := res.RetryAfter(rl.lim.Now())
		observability.RateLimited.WithLabelValues(rl.op).Inc()
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id":  c.Writer.Header().Get(requestIDHeader),
			"code":        "rate_limited",
			"message":     "rate limit exceeded",
			"retry_after": retry,
		})
	}
}
