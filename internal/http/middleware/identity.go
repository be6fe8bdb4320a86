// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file carries the caller identity. Authentication is upstream of this
// service: a gateway or the booking frontend forwards an opaque, already
// verified holder ID in X-User-ID. Identity copies it into the Gin context
// under "userID"; RequireUser rejects write requests that lack one.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "userID"
	userIDHeader = "X-User-ID"
	maxUserIDLen = 128
)

// Identity reads X-User-ID and stores it under "userID". Values that are
// blank or longer than 128 bytes are ignored, leaving the request anonymous.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(userIDHeader)); uid != "" && len(uid) <= maxUserIDLen {
			c.Set(userIDKey, uid)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 unless Identity found a caller identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserFrom(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "a holder identity is required (X-User-ID)",
			})
			return
		}
		c.Next()
	}
}

// UserFrom returns the caller identity, or "" for anonymous requests.
func UserFrom(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}
