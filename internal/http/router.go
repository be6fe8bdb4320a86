// Package httpapi wires the HTTP transport (Gin) to the hold and waitlist
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, caller identity, logging and
// redaction, panic recovery, metrics, CORS, security headers, tenant
// resolution, response replay, and per-operation rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → Identity → logging → recovery)
//   - Every dependency injectable; in-memory defaults for anything omitted
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-stay-holds/internal/clock"
	"github.com/tbourn/go-stay-holds/internal/config"
	"github.com/tbourn/go-stay-holds/internal/events"
	"github.com/tbourn/go-stay-holds/internal/http/handlers"
	"github.com/tbourn/go-stay-holds/internal/http/middleware"
	"github.com/tbourn/go-stay-holds/internal/observability"
	"github.com/tbourn/go-stay-holds/internal/ratelimit"
	"github.com/tbourn/go-stay-holds/internal/repo"
	"github.com/tbourn/go-stay-holds/internal/services"
	"github.com/tbourn/go-stay-holds/internal/tenant"
	"github.com/tbourn/go-stay-holds/internal/ttlcache"
)

// Rate-limit operation names. They prefix bucket keys and label the
// ratelimit_rejected_total metric.
const (
	OpCheck    = "check"
	OpHold     = "hold"
	OpWaitlist = "waitlist"
)

// Deps carries the infrastructure RegisterRoutes builds services from. Only
// DB is required.
type Deps struct {
	DB *gorm.DB

	// Clock defaults to the system clock.
	Clock clock.Clock
	// Limiter defaults to an in-memory limiter bounded by RateLimit.MaxKeys.
	Limiter *ratelimit.Limiter
	// Replays defaults to the replay_records table.
	Replays ttlcache.Store[middleware.StoredResponse]
	// Publisher defaults to events.Nop.
	Publisher events.Publisher
	// Tenants defaults to a cached resolver over the tenants table.
	Tenants middleware.TenantResolver
}

func (d *Deps) defaults(cfg config.Config) {
	d.Clock = clock.Or(d.Clock)
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewMemory(cfg.RateLimit.MaxKeys, d.Clock)
	}
	if d.Replays == nil {
		d.Replays = repo.NewReplayStore[middleware.StoredResponse](d.DB, d.Clock)
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Tenants == nil {
		d.Tenants = tenant.NewResolver(tenant.GormStore{DB: d.DB}, tenant.Options{
			TTL:       cfg.TenantCache.TTL,
			Capacity:  cfg.TenantCache.Capacity,
			Clock:     d.Clock,
			Hits:      observability.TenantCacheHits,
			Misses:    observability.TenantCacheMisses,
			Evictions: observability.TenantCacheEvictions,
		})
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the tenant-scoped API under {APIBasePath}/t/:tenant.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: read X-User-ID so logs and limiter keys see the caller
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. CORS and Security headers
//
// Per route group: Tenant resolution, then RequireUser on writes, then
// Idempotency replay (so replays skip limiting), then the operation's
// rate limiter.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	deps.defaults(cfg)
	handlers.RegisterValidators()
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller identity
	r.Use(middleware.Identity())

	// 4) Structured logging, redacted unless LOG_REDACT=false
	if cfg.LogRaw {
		r.Use(middleware.Logger())
	} else {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
			MaskQuery:   []string{"contact"},
		}))
	}

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (64 KiB; hold payloads are tiny)
	r.Use(limitBody(64 << 10))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey}
	methods := []string{"GET", "POST", "DELETE", "OPTIONS"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    middleware.DefaultExposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    middleware.DefaultExposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers. Hold state is live, so nothing is cacheable.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/clock/publisher
	holdSvc := services.NewHoldService(deps.DB, deps.Clock,
		services.WithHoldTTL(cfg.Hold.TTL),
		services.WithMaxNights(cfg.Hold.MaxNights),
		services.WithCheckFailClosed(cfg.Hold.CheckFailClosed),
	)
	wlSvc := &services.WaitlistService{DB: deps.DB, Clock: deps.Clock, Publisher: deps.Publisher}
	h := handlers.New(holdSvc, wlSvc)

	window := cfg.RateLimit.Window
	limit := func(op string, max int) gin.HandlerFunc {
		return middleware.NewRateLimiter(deps.Limiter, op, ratelimit.Limit{Max: max, Window: window}, middleware.KeyByUserOrIP()).Handler()
	}
	checkRL := limit(OpCheck, cfg.RateLimit.CheckLimit)
	holdRL := limit(OpHold, cfg.RateLimit.HoldLimit)
	waitRL := limit(OpWaitlist, cfg.RateLimit.WaitlistLimit)
	user := middleware.RequireUser()
	replay := middleware.Idempotency(deps.Replays, middleware.IdempotencyOptions{})
	replayHold := middleware.Idempotency(deps.Replays, middleware.IdempotencyOptions{Revalidate: h.ReplayAcquire})

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	t := api.Group("/t/:tenant", middleware.Tenant(deps.Tenants, "tenant"))
	{
		// Reads (identity optional)
		t.GET("/holds/check", checkRL, h.CheckHold)
		t.GET("/holds/countdown", checkRL, h.HoldCountdown)

		// Hold lifecycle
		t.POST("/holds", user, replayHold, holdRL, h.AcquireHold)
		t.DELETE("/holds", user, holdRL, h.ReleaseHold)
		t.POST("/holds/verify", user, holdRL, h.VerifyHold)
		t.POST("/holds/complete", user, replay, holdRL, h.CompleteHold)

		// Cancellation side effect (service-to-service; holder_id may be in the body)
		t.POST("/holds/cancel", holdRL, h.CancelHold)

		// Waitlist
		t.POST("/waitlist", user, replay, waitRL, h.JoinWaitlist)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
