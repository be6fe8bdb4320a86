// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements response replay for retried writes. A client that
// sends the same Idempotency-Key for the same tenant, caller and route within
// the replay window gets the first successful response back instead of a
// second side effect. Waitlist joins append on every call, so a network
// retry would otherwise register the guest twice.
//
// Notes:
//   - Only 2xx responses are stored. A 409 held or 429 is worth retrying.
//   - Two concurrent requests with a fresh key may both execute; the store is
//     a replay cache, not a lock.
//   - Install before the rate limiter so replays do not consume budget.
//   - A stored response describing live state (an acquired hold) goes stale
//     once that state changes; routes like that set Revalidate.
package middleware

import (
	"bytes"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-stay-holds/internal/ttlcache"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay marks a response served from the replay store.
const HeaderIdempotentReplay = "Idempotent-Replayed"

const ctxKeyIdemReplay = "idem.replay"

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// StoredResponse is what the replay store keeps per key.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyOptions configures Idempotency.
type IdempotencyOptions struct {
	// TTL is the replay window. Values <= 0 default to 24h.
	TTL time.Duration
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Revalidate runs before a stored response is replayed. Returning true
	// replays the stored bytes; returning false means Revalidate already
	// wrote the answer from current state.
	Revalidate func(c *gin.Context, stored StoredResponse) bool
}

// IsReplay reports whether this response was served from the replay store.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// captureWriter tees the response body so it can be stored after the handler.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency validates Idempotency-Key (when present) and replays the stored
// response for a repeated key.
//
// Behavior:
//   - Header absent: no-op.
//   - Header invalid: 400 invalid_input.
//   - Stored response found: written back with Idempotent-Replayed: true and
//     the chain is aborted. With Revalidate set, it decides first.
//   - Otherwise the handler runs and a 2xx response is stored for TTL.
//
// Store failures are logged and never block the request.
func Idempotency(store ttlcache.Store[StoredResponse], opts IdempotencyOptions) gin.HandlerFunc {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "invalid_input",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		ctx := c.Request.Context()
		scoped := replayKey(c, key)

		prev, found, err := store.Get(ctx, scoped)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed; executing request")
		}
		if found {
			c.Set(ctxKeyIdemReplay, true)
			if opts.Revalidate != nil && !opts.Revalidate(c, prev) {
				c.Abort()
				return
			}
			c.Header(HeaderIdempotentReplay, "true")
			c.Data(prev.Status, prev.ContentType, prev.Body)
			c.Abort()
			return
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()
		c.Writer = cw.ResponseWriter

		status := cw.Status()
		if status < 200 || status >= 300 {
			return
		}
		rec := StoredResponse{
			Status:      status,
			ContentType: cw.Header().Get("Content-Type"),
			Body:        cw.buf.Bytes(),
		}
		if err := store.Set(ctx, scoped, rec, ttl); err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency store failed")
		}
	}
}

// replayKey scopes a client key to tenant, caller, method and route so keys
// never collide across guests or endpoints.
func replayKey(c *gin.Context, key string) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return strings.Join([]string{
		c.Param("tenant"),
		UserFrom(c),
		c.Request.Method,
		route,
		key,
	}, "|")
}
