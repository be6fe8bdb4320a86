// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the :tenant path segment through the tenant cache and
// stores the result for handlers. Unknown or inactive tenants get 404; a
// tenant store outage gets 503 so clients retry rather than treat the tenant
// as gone.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-stay-holds/internal/tenant"
)

const tenantKey = "tenant"

// TenantResolver is the subset of *tenant.Resolver used by Tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, raw string) (tenant.Summary, bool, error)
}

// Tenant resolves c.Param(param) and stores the tenant.Summary under
// "tenant".
func Tenant(r TenantResolver, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, found, err := r.Resolve(c.Request.Context(), c.Param(param))
		if err != nil {
			LoggerFrom(c).Error().Err(err).Str("tenant", c.Param(param)).Msg("tenant lookup failed")
			c.Header("Retry-After", "5")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "storage_unavailable",
				"message":    "tenant directory is unavailable, try again later",
			})
			return
		}
		if !found {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "not_found",
				"message":    "tenant not found",
			})
			return
		}
		c.Set(tenantKey, t)
		c.Next()
	}
}

// TenantFrom returns the tenant resolved for this request.
func TenantFrom(c *gin.Context) (tenant.Summary, bool) {
	v, ok := c.Get(tenantKey)
	if !ok {
		return tenant.Summary{}, false
	}
	t, ok := v.(tenant.Summary)
	return t, ok
}
