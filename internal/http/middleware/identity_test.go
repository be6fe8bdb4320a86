package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentity_SetsAndIgnores(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/who", func(c *gin.Context) { c.String(http.StatusOK, UserFrom(c)) })

	cases := []struct {
		name, header, want string
	}{
		{"absent", "", ""},
		{"trimmed", "  guest-42 ", "guest-42"},
		{"blank", "   ", ""},
		{"too long", strings.Repeat("x", maxUserIDLen+1), ""},
		{"at limit", strings.Repeat("x", maxUserIDLen), strings.Repeat("x", maxUserIDLen)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.header != "" {
				req.Header.Set(userIDHeader, tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Body.String() != tc.want {
				t.Fatalf("user=%q want %q", w.Body.String(), tc.want)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Identity())
	r.POST("/w", RequireUser(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/w", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status=%d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["code"] != "unauthorized" || body["request_id"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/w", nil)
	req.Header.Set(userIDHeader, "guest-1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("identified: status=%d", w.Code)
	}
}
