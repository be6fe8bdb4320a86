// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware for the JSON API.
// Hold and countdown responses describe live, per-guest state, so they are
// marked no-store by default. Browser checkout pages read correlation and
// throttling headers, so those are exposed through CORS.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultExposeHeaders are readable by browser clients: the correlation ID
// and the headers a checkout page needs to back off politely.
var DefaultExposeHeaders = []string{
	requestIDHeader,
	"Retry-After",
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"X-RateLimit-Reset",
}

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security for HTTPS requests only. Enable
// it only when traffic is HTTPS end-to-end. HSTSMaxAge defaults to 180 days.
//
// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires).
//
// EnablePolicy sends Permissions-Policy and X-Permitted-Cross-Domain-Policies.
//
// ExposeHeaders overrides DefaultExposeHeaders when non-nil.
type SecurityOptions struct {
	EnableHSTS    bool
	HSTSMaxAge    time.Duration
	NoStore       bool
	EnablePolicy  bool
	ExposeHeaders []string
}

// SecurityHeaders returns a Gin middleware that adds conservative security
// headers to each response.
//
// Always set: X-Content-Type-Options, X-Frame-Options and Referrer-Policy.
// Access-Control-Expose-Headers is merged with whatever CORS already set,
// without duplicates.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	expose := opt.ExposeHeaders
	if expose == nil {
		expose = DefaultExposeHeaders
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if len(expose) > 0 {
			h.Set("Access-Control-Expose-Headers", mergeHeaderList(h.Get("Access-Control-Expose-Headers"), expose))
		}

		c.Next()
	}
}

// mergeHeaderList appends names to a comma-separated header value, skipping
// names already present (case-insensitive).
func mergeHeaderList(cur string, names []string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range strings.Split(cur, ",") {
		if p = strings.TrimSpace(p); p != "" {
			seen[strings.ToLower(p)] = struct{}{}
			out = append(out, p)
		}
	}
	for _, n := range names {
		if _, ok := seen[strings.ToLower(n)]; ok {
			continue
		}
		seen[strings.ToLower(n)] = struct{}{}
		out = append(out, n)
	}
	return strings.Join(out, ", ")
}

// isHTTPS reports whether the incoming request used HTTPS either directly
// (r.TLS != nil) or via a reverse proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
