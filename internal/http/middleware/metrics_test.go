package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-stay-holds/internal/tenant"
)

func TestMetrics_Counters_Histograms_InflightAndUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())

	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "hello")
	})
	// 204 writes no body, so the size histogram is skipped.
	r.GET("/statusonly", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// Baselines first; other tests share the default registry.
	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))

	for _, tc := range []struct {
		path string
		code int
	}{
		{"/ok", http.StatusOK},
		{"/t/some-random-slug/holds", http.StatusNotFound},
		{"/statusonly", http.StatusNoContent},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.code {
			t.Fatalf("GET %s -> %d", tc.path, w.Code)
		}
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200")); got != baseOK+1 {
		t.Fatalf("counter /ok 200 = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")); got != base404+1 {
		t.Fatalf("counter unmatched 404 = %v; want %v", got, base404+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestMetrics_TenantCounter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	res := fakeResolver{tenants: map[string]tenant.Summary{"acme": {ID: "t-1", Slug: "acme"}}}
	g := r.Group("/t/:tenant", Tenant(res, "tenant"))
	g.POST("/holds", func(c *gin.Context) { c.Status(http.StatusConflict) })

	base := testutil.ToFloat64(tenantReqs.WithLabelValues("acme", "4xx"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/t/acme/holds", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	if got := testutil.ToFloat64(tenantReqs.WithLabelValues("acme", "4xx")); got != base+1 {
		t.Fatalf("tenant counter = %v; want %v", got, base+1)
	}

	// Unknown tenants never get a series.
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/t/ghost/holds", nil))
	if got := testutil.ToFloat64(tenantReqs.WithLabelValues("ghost", "4xx")); got != 0 {
		t.Fatalf("unknown tenant counted: %v", got)
	}
}

func Test_statusClass(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 409: "4xx", 503: "5xx", 42: "other"} {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d)=%q want %q", code, got, want)
		}
	}
}
