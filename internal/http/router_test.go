package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-stay-holds/internal/clock"
	"github.com/tbourn/go-stay-holds/internal/config"
	"github.com/tbourn/go-stay-holds/internal/events"
	"github.com/tbourn/go-stay-holds/internal/http/middleware"
	"github.com/tbourn/go-stay-holds/internal/repo"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if _, err := repo.CreateTenant(context.Background(), db, "acme", "Acme Stays"); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		Hold:        config.HoldConfig{TTL: 15 * time.Minute, MaxNights: 60},
		RateLimit: config.RateLimitConfig{
			Window: time.Minute, CheckLimit: 100, HoldLimit: 100, WaitlistLimit: 100, MaxKeys: 1000,
		},
		TenantCache: config.TenantCacheConfig{TTL: time.Minute, Capacity: 100},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

type testServer struct {
	r   *gin.Engine
	clk *clock.Manual
	db  *gorm.DB
}

func newServer(t *testing.T, cfg config.Config, pub events.Publisher) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clk := clock.NewManual(t0)
	db := newTestDB(t)
	r := gin.New()
	RegisterRoutes(r, Deps{DB: db, Clock: clk, Publisher: pub}, cfg)
	return &testServer{r: r, clk: clk, db: db}
}

func (s *testServer) do(method, path, user string, body any, hdr ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return m
}

var stay = map[string]string{"resource_id": "room-101", "range_start": "2025-07-01", "range_end": "2025-07-03"}

const (
	holdsPath = "/api/v1/t/acme/holds"
	checkPath = "/api/v1/t/acme/holds/check?resource_id=room-101&range_start=2025-07-01&range_end=2025-07-03"
)

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	s := newServer(t, testConfig(), nil)

	w := s.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store")
	}

	w = s.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "holds_check_fail_open_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	if w = s.do(http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w = s.do(http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"http://example.com"}
	s := newServer(t, cfg, nil)

	w := s.do(http.MethodGet, "/health", "", nil, "Origin", "http://example.com")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestHoldFlow_AcquireHeldVerifyComplete(t *testing.T) {
	s := newServer(t, testConfig(), nil)

	// A acquires.
	w := s.do(http.MethodPost, holdsPath, "guest-a", stay)
	if w.Code != http.StatusCreated {
		t.Fatalf("acquire = %d %s", w.Code, w.Body.String())
	}
	if m := decode(t, w); m["success"] != true || m["seconds_remaining"].(float64) != 900 {
		t.Fatalf("acquire body: %v", m)
	}

	// Same request again: existing hold, 200.
	if w = s.do(http.MethodPost, holdsPath, "guest-a", stay); w.Code != http.StatusOK {
		t.Fatalf("re-acquire = %d", w.Code)
	}

	// One minute later B checks and tries to acquire.
	s.clk.Advance(time.Minute)
	w = s.do(http.MethodGet, checkPath, "guest-b", nil)
	m := decode(t, w)
	if w.Code != http.StatusOK || m["is_locked"] != true || m["locked_by"] != "guest-a" || m["seconds_remaining"].(float64) != 840 {
		t.Fatalf("check = %d %v", w.Code, m)
	}
	// A's own check is free.
	if m = decode(t, s.do(http.MethodGet, checkPath, "guest-a", nil)); m["is_locked"] != false || m["locked_by"] != nil {
		t.Fatalf("self check: %v", m)
	}

	w = s.do(http.MethodPost, holdsPath, "guest-b", stay)
	if w.Code != http.StatusConflict {
		t.Fatalf("B acquire = %d", w.Code)
	}
	if m = decode(t, w); m["code"] != "held" || m["locked_by"] != "guest-a" || m["success"] != false {
		t.Fatalf("held body: %v", m)
	}

	// Countdown for B shows the other holder.
	w = s.do(http.MethodGet, strings.Replace(checkPath, "/check", "/countdown", 1), "guest-b", nil)
	if m = decode(t, w); m["state"] != "held_by_other" {
		t.Fatalf("countdown: %v", m)
	}

	// Verify then complete.
	if w = s.do(http.MethodPost, holdsPath+"/verify", "guest-a", stay); w.Code != http.StatusOK {
		t.Fatalf("verify = %d", w.Code)
	}
	if w = s.do(http.MethodPost, holdsPath+"/complete", "guest-a", stay); w.Code != http.StatusOK {
		t.Fatalf("complete = %d %s", w.Code, w.Body.String())
	}
	// Consumed: a second complete is gone.
	if w = s.do(http.MethodPost, holdsPath+"/complete", "guest-a", stay); w.Code != http.StatusGone {
		t.Fatalf("second complete = %d", w.Code)
	}
	if m = decode(t, w); m["code"] != "hold_expired" {
		t.Fatalf("expired body: %v", m)
	}
}

func TestHoldFlow_ExpiryAndRelease(t *testing.T) {
	s := newServer(t, testConfig(), nil)

	if w := s.do(http.MethodPost, holdsPath, "guest-a", stay); w.Code != http.StatusCreated {
		t.Fatalf("acquire = %d", w.Code)
	}
	s.clk.Advance(15 * time.Minute)

	if w := s.do(http.MethodPost, holdsPath+"/verify", "guest-a", stay); w.Code != http.StatusGone {
		t.Fatalf("verify after expiry = %d", w.Code)
	}
	// Expired holds never block.
	if w := s.do(http.MethodPost, holdsPath, "guest-b", stay); w.Code != http.StatusCreated {
		t.Fatalf("B acquire after expiry = %d", w.Code)
	}
	if w := s.do(http.MethodDelete, holdsPath, "guest-b", stay); w.Code != http.StatusNoContent {
		t.Fatalf("release = %d", w.Code)
	}
	// Releasing again still succeeds.
	if w := s.do(http.MethodDelete, holdsPath, "guest-b", stay); w.Code != http.StatusNoContent {
		t.Fatalf("second release = %d", w.Code)
	}
	// Cancel is accepted even with nothing to release.
	body := map[string]string{"resource_id": "room-101", "holder_id": "guest-b", "range_start": "2025-07-01", "range_end": "2025-07-03"}
	if w := s.do(http.MethodPost, holdsPath+"/cancel", "", body); w.Code != http.StatusAccepted {
		t.Fatalf("cancel = %d", w.Code)
	}
}

func TestHoldRoutes_InputAndIdentityErrors(t *testing.T) {
	s := newServer(t, testConfig(), nil)

	if w := s.do(http.MethodPost, holdsPath, "", stay); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous acquire = %d", w.Code)
	}
	bad := map[string]string{"resource_id": "room-101", "range_start": "2025-07-03", "range_end": "2025-07-01"}
	if w := s.do(http.MethodPost, holdsPath, "guest-a", bad); w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range = %d", w.Code)
	}
	malformed := map[string]string{"resource_id": "room-101", "range_start": "07/01/2025", "range_end": "2025-07-03"}
	if w := s.do(http.MethodPost, holdsPath, "guest-a", malformed); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed date = %d", w.Code)
	}
	if w := s.do(http.MethodPost, holdsPath+"/cancel", "", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed cancel = %d", w.Code)
	}
	mismatch := map[string]string{"resource_id": "room-101", "range_start": "2025-07-01", "range_end": "2025-07-03", "tenant_id": "other"}
	if w := s.do(http.MethodPost, holdsPath, "guest-a", mismatch); w.Code != http.StatusBadRequest {
		t.Fatalf("tenant mismatch = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/t/ghost/holds/check?resource_id=r&range_start=2025-07-01&range_end=2025-07-02", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown tenant = %d", w.Code)
	}
	// Tenant slugs are case-insensitive.
	if w := s.do(http.MethodGet, strings.Replace(checkPath, "/acme/", "/ACME/", 1), "", nil); w.Code != http.StatusOK {
		t.Fatalf("case-folded tenant = %d", w.Code)
	}
}

func TestHoldReplay_ReflectsLiveState(t *testing.T) {
	s := newServer(t, testConfig(), nil)
	key := []string{middleware.HeaderIdempotencyKey, "acq-1"}

	w := s.do(http.MethodPost, holdsPath, "guest-x", stay, key...)
	if w.Code != http.StatusCreated {
		t.Fatalf("acquire = %d %s", w.Code, w.Body.String())
	}
	first := decode(t, w)

	// Retry within the hold's life: same hold, live countdown.
	s.clk.Advance(5 * time.Minute)
	w = s.do(http.MethodPost, holdsPath, "guest-x", stay, key...)
	m := decode(t, w)
	if w.Code != http.StatusCreated || w.Header().Get(middleware.HeaderIdempotentReplay) != "true" ||
		m["hold_id"] != first["hold_id"] || m["seconds_remaining"].(float64) != 600 {
		t.Fatalf("replay within ttl = %d %v", w.Code, m)
	}

	// The hold lapses and another guest takes the range.
	s.clk.Advance(11 * time.Minute)
	if w = s.do(http.MethodPost, holdsPath, "guest-y", stay); w.Code != http.StatusCreated {
		t.Fatalf("guest-y acquire = %d", w.Code)
	}

	w = s.do(http.MethodPost, holdsPath, "guest-x", stay, key...)
	if w.Code != http.StatusGone {
		t.Fatalf("replay after expiry = %d %s", w.Code, w.Body.String())
	}
	if m = decode(t, w); m["code"] != "hold_expired" || m["success"] != nil {
		t.Fatalf("replay after expiry body: %v", m)
	}
	// guest-y still owns the range.
	if m = decode(t, s.do(http.MethodGet, checkPath, "guest-x", nil)); m["locked_by"] != "guest-y" {
		t.Fatalf("check after replay: %v", m)
	}
}

func TestHoldFlow_TenantsAreIsolated(t *testing.T) {
	s := newServer(t, testConfig(), nil)
	if _, err := repo.CreateTenant(context.Background(), s.db, "beta", "Beta Inns"); err != nil {
		t.Fatalf("seed beta: %v", err)
	}
	betaHolds := strings.Replace(holdsPath, "/acme/", "/beta/", 1)
	betaCheck := strings.Replace(checkPath, "/acme/", "/beta/", 1)

	if w := s.do(http.MethodPost, holdsPath, "guest-x", stay); w.Code != http.StatusCreated {
		t.Fatalf("acme acquire = %d", w.Code)
	}
	// Same resource ID and range under another tenant is a different room.
	if m := decode(t, s.do(http.MethodGet, betaCheck, "guest-y", nil)); m["is_locked"] != false {
		t.Fatalf("beta check sees acme hold: %v", m)
	}
	w := s.do(http.MethodPost, betaHolds, "guest-y", stay)
	if w.Code != http.StatusCreated {
		t.Fatalf("beta acquire = %d %s", w.Code, w.Body.String())
	}
	// Each tenant only sees its own holder.
	if m := decode(t, s.do(http.MethodGet, checkPath, "guest-z", nil)); m["locked_by"] != "guest-x" {
		t.Fatalf("acme check: %v", m)
	}
	if m := decode(t, s.do(http.MethodGet, betaCheck, "guest-z", nil)); m["locked_by"] != "guest-y" {
		t.Fatalf("beta check: %v", m)
	}
	// Releasing under one tenant leaves the other alone.
	if w = s.do(http.MethodDelete, betaHolds, "guest-x", stay); w.Code != http.StatusNoContent {
		t.Fatalf("beta release = %d", w.Code)
	}
	if w = s.do(http.MethodPost, holdsPath+"/verify", "guest-x", stay); w.Code != http.StatusOK {
		t.Fatalf("acme hold lost: %d", w.Code)
	}
}

type recordingPublisher struct{ events []events.WaitlistJoined }

func (p *recordingPublisher) PublishWaitlistJoined(_ context.Context, e events.WaitlistJoined) error {
	p.events = append(p.events, e)
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

func TestWaitlist_JoinAndReplay(t *testing.T) {
	pub := &recordingPublisher{}
	s := newServer(t, testConfig(), pub)

	body := map[string]string{
		"resource_id": "room-101", "contact": "a@example.com",
		"range_start": "2025-07-01", "range_end": "2025-07-03",
	}
	w := s.do(http.MethodPost, "/api/v1/t/acme/waitlist", "guest-a", body, middleware.HeaderIdempotencyKey, "join-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("join = %d %s", w.Code, w.Body.String())
	}
	first := decode(t, w)
	if first["waiting"].(float64) != 1 || first["entry_id"] == "" {
		t.Fatalf("join body: %v", first)
	}

	// Network retry with the same key: same response, no second entry.
	w = s.do(http.MethodPost, "/api/v1/t/acme/waitlist", "guest-a", body, middleware.HeaderIdempotencyKey, "join-1")
	if w.Code != http.StatusCreated || w.Header().Get(middleware.HeaderIdempotentReplay) != "true" {
		t.Fatalf("replay = %d %v", w.Code, w.Header())
	}
	if decode(t, w)["entry_id"] != first["entry_id"] || len(pub.events) != 1 {
		t.Fatalf("replay created a new entry (events=%d)", len(pub.events))
	}

	// Without a key, duplicates are accepted.
	w = s.do(http.MethodPost, "/api/v1/t/acme/waitlist", "guest-a", body)
	if w.Code != http.StatusCreated || decode(t, w)["waiting"].(float64) != 2 {
		t.Fatalf("duplicate join = %d %s", w.Code, w.Body.String())
	}

	if w = s.do(http.MethodPost, "/api/v1/t/acme/waitlist", "guest-a", map[string]string{"resource_id": "room-101"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing contact = %d", w.Code)
	}
}

func TestRateLimit_PerOperation(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.HoldLimit = 2
	s := newServer(t, cfg, nil)

	for i := 0; i < 2; i++ {
		if w := s.do(http.MethodPost, holdsPath, "guest-a", stay); w.Code >= 400 {
			t.Fatalf("call %d = %d", i, w.Code)
		}
	}
	w := s.do(http.MethodPost, holdsPath, "guest-a", stay)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("third hold call = %d", w.Code)
	}
	if m := decode(t, w); m["code"] != "rate_limited" {
		t.Fatalf("body: %v", m)
	}
	// Checks have their own budget.
	if w = s.do(http.MethodGet, checkPath, "guest-a", nil); w.Code != http.StatusOK {
		t.Fatalf("check after hold limit = %d", w.Code)
	}
	// Next window admits again.
	s.clk.Advance(time.Minute)
	if w = s.do(http.MethodPost, holdsPath, "guest-a", stay); w.Code >= 400 {
		t.Fatalf("after window = %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestAccessLog_RedactUnlessDisabled(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)

	path := checkPath + "&contact=ann@example.com"

	s := newServer(t, testConfig(), nil)
	s.do(http.MethodGet, path, "guest-x", nil)
	if strings.Contains(buf.String(), "ann@example.com") {
		t.Fatalf("default access log leaked contact: %s", buf.String())
	}

	buf.Reset()
	cfg := testConfig()
	cfg.LogRaw = true
	raw := newServer(t, cfg, nil)
	raw.do(http.MethodGet, path, "guest-x", nil)
	if !strings.Contains(buf.String(), "contact=ann@example.com") {
		t.Fatalf("LOG_REDACT=false should log the raw query: %s", buf.String())
	}
}
