// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the production access logger, and
// the core it shares with Logger (request-scoped logger in the Gin and
// request contexts, level by outcome). RedactingLogger scrubs guest PII
// before anything is written: waitlist contacts are emails or phone numbers, and holder IDs
// are frequently UUIDs.
//
// Design goals:
//   - Default-safe: never logs request or response bodies
//   - Redacts emails, phone numbers and UUIDs in query strings and headers
//   - Masks sensitive headers and named query parameters outright
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Api-Key"},
//	    MaskQuery:   []string{"contact"},
//	}))
package middleware

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders names extra headers whose values are replaced with
// "[REDACTED]"; they are merged with Authorization, Cookie and Set-Cookie.
// MaskQuery names query parameters whose values are replaced the same way.
// Matching is case-insensitive for both.
type RedactOptions struct {
	MaskHeaders []string
	MaskQuery   []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so the hex groups of a UUID never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs IDs, then emails, then phones. UUIDs go first so the loose
// phone pattern cannot eat their digit groups.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	out := make(map[string]struct{}, len(base)+len(extra))
	for _, group := range [][]string{base, extra} {
		for _, h := range group {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				out[h] = struct{}{}
			}
		}
	}
	return out
}

// scrubQuery masks named parameters and pattern-redacts the rest. An
// unparsable query is pattern-redacted as a whole.
func scrubQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return redact(raw)
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range vals[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			if _, ok := mask[strings.ToLower(k)]; ok {
				b.WriteString("[REDACTED]")
			} else {
				b.WriteString(redact(v))
			}
		}
	}
	return truncate(b.String(), maxQueryLogLength)
}

// credentialHeaders are masked by every access logger.
var credentialHeaders = []string{"authorization", "cookie", "set-cookie"}

// RedactingLogger returns a Gin middleware that logs each request with
// sensitive values scrubbed and installs a request-scoped logger.
//
// The request-scoped logger carries request_id, tenant and the holder ID in
// redacted form, so service logs stay correlated without leaking raw IDs.
// Levels: INFO by default, WARN for 4xx, ERROR for 5xx or Gin errors.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	return accessLogger(true, lowerSet(credentialHeaders, opts.MaskHeaders), lowerSet(nil, opts.MaskQuery))
}

// accessLogger is shared by Logger and RedactingLogger. With scrub off,
// values are logged as received except for masked headers and parameters.
func accessLogger(scrub bool, maskHeaders, maskQuery map[string]struct{}) gin.HandlerFunc {
	clean := redact
	query := func(raw string) string { return scrubQuery(raw, maskQuery) }
	if !scrub {
		clean = func(s string) string { return s }
		query = func(raw string) string { return truncate(raw, maxQueryLogLength) }
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = clean(strings.Join(vv, ", "))
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}

		l := log.With().
			Str("request_id", reqID).
			Str("user_id", clean(UserFrom(c))).
			Str("tenant", c.Param("tenant")).
			Logger()
		c.Set("logger", &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", clean(c.Errors.String()))
		}

		ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query(c.Request.URL.RawQuery)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
