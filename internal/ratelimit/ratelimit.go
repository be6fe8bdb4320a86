// Package ratelimit implements a fixed-window request limiter keyed by
// "operation:identity".
//
// A bucket is created lazily on the first call for a key, counts allowed
// calls until its window resets, and is replaced wholesale (count 1, fresh
// reset time) by the first call at or after the reset instant. Denied calls
// neither increment the count nor move the reset time.
//
// Buckets live in an injected ttlcache.Store: the bounded in-memory store by
// default, or the Redis store when several instances must share counters.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tbourn/go-stay-holds/internal/clock"
	"github.com/tbourn/go-stay-holds/internal/ttlcache"
)

// ErrInvalidLimit is returned when a Limit has a non-positive Max or Window.
var ErrInvalidLimit = errors.New("rate limit max and window must be positive")

// Limit is the budget for one operation: Max calls per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Bucket is the persisted state of one key.
type Bucket struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// Result reports the outcome of a single Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds a denied caller should wait, at least 1.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Key builds the bucket key for an operation and caller identity.
func Key(operation, identity string) string {
	return operation + ":" + identity
}

// Limiter evaluates Limits against buckets held in a Store.
type Limiter struct {
	store ttlcache.Store[Bucket]
	clk   clock.Clock

	// mu makes read-modify-write atomic within this process. Instances
	// sharing a Redis store may still race on a bucket by a call or two.
	mu sync.Mutex
}

// New returns a Limiter over store. A nil clock means the system clock.
func New(store ttlcache.Store[Bucket], clk clock.Clock) *Limiter {
	return &Limiter{store: store, clk: clock.Or(clk)}
}

// NewMemory returns a Limiter over a bounded in-memory store.
func NewMemory(maxKeys int, clk clock.Clock) *Limiter {
	store := ttlcache.NewMemory[Bucket](
		ttlcache.WithMaxEntries[Bucket](maxKeys),
		ttlcache.WithClock[Bucket](clk),
	)
	return New(store, clk)
}

// Now returns the limiter's notion of the current time.
func (l *Limiter) Now() time.Time { return l.clk.Now() }

// Check consumes one call from key's bucket if the budget allows it.
// Store errors are returned to the caller, which decides whether to fail
// open or closed.
func (l *Limiter) Check(ctx context.Context, lim Limit, key string) (Result, error) {
	if lim.Max <= 0 || lim.Window <= 0 {
		return Result{}, ErrInvalidLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	b, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("load bucket: %w", err)
	}

	if !ok || !now.Before(b.ResetAt) {
		b = Bucket{Count: 1, ResetAt: now.Add(lim.Window)}
		if err := l.store.Set(ctx, key, b, b.ResetAt.Sub(now)); err != nil {
			return Result{}, fmt.Errorf("save bucket: %w", err)
		}
		return Result{Allowed: true, Limit: lim.Max, Remaining: lim.Max - 1, ResetAt: b.ResetAt}, nil
	}

	if b.Count >= lim.Max {
		return Result{Allowed: false, Limit: lim.Max, Remaining: 0, ResetAt: b.ResetAt}, nil
	}

	b.Count++
	if err := l.store.Set(ctx, key, b, b.ResetAt.Sub(now)); err != nil {
		return Result{}, fmt.Errorf("save bucket: %w", err)
	}
	return Result{Allowed: true, Limit: lim.Max, Remaining: lim.Max - b.Count, ResetAt: b.ResetAt}, nil
}

// Reset drops every bucket.
func (l *Limiter) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Clear(ctx)
}
