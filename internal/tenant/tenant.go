// Package tenant resolves tenant slugs from request paths through a bounded
// TTL cache that sits in front of the tenant lookup store.
//
// Both positive and negative results are cached so that repeated requests for
// an unknown slug do not reach the store. The TTL bounds how long a tenant
// activation or deactivation takes to become visible. Store failures are
// never cached.
package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/go-stay-holds/internal/clock"
	"github.com/tbourn/go-stay-holds/internal/domain"
	"github.com/tbourn/go-stay-holds/internal/repo"
	"github.com/tbourn/go-stay-holds/internal/ttlcache"
)

const (
	// DefaultTTL is how long a cached answer is trusted.
	DefaultTTL = 60 * time.Second
	// DefaultCapacity bounds the number of cached keys.
	DefaultCapacity = 1000

	maxKeyLen = 64
)

// Summary is the cached view of a tenant.
type Summary struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// State is the three-way answer of a cache lookup.
type State int

const (
	// Absent means the cache has no live entry for the key.
	Absent State = iota
	// NotFound means the store previously reported no active tenant.
	NotFound
	// Found means a summary is cached.
	Found
)

// Store looks tenants up by normalized slug. A missing tenant is reported
// as found=false with a nil error.
type Store interface {
	LookupTenant(ctx context.Context, slug string) (*domain.Tenant, bool, error)
}

// GormStore adapts the repo package to Store.
type GormStore struct {
	DB *gorm.DB
}

// LookupTenant implements Store.
func (s GormStore) LookupTenant(ctx context.Context, slug string) (*domain.Tenant, bool, error) {
	t, err := repo.GetTenantBySlug(ctx, s.DB, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

type entry struct {
	Summary Summary
	Found   bool
}

// Options tunes a Resolver. Zero values pick the defaults; nil counters are
// skipped.
type Options struct {
	TTL       time.Duration
	Capacity  int
	Clock     clock.Clock
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
}

// Resolver answers slug lookups from cache, falling back to the Store.
type Resolver struct {
	store  Store
	cache  *ttlcache.Memory[entry]
	ttl    time.Duration
	group  singleflight.Group
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewResolver builds a Resolver over store.
func NewResolver(store Store, opts Options) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	return &Resolver{
		store: store,
		cache: ttlcache.NewMemory[entry](
			ttlcache.WithMaxEntries[entry](opts.Capacity),
			ttlcache.WithClock[entry](opts.Clock),
			ttlcache.WithCounters[entry](nil, nil, opts.Evictions),
		),
		ttl:    opts.TTL,
		hits:   opts.Hits,
		misses: opts.Misses,
	}
}

// Normalize returns the cache key for a raw slug: trimmed and case-folded.
// Empty or oversized input yields "".
func (r *Resolver) Normalize(raw string) string {
	k := strings.TrimSpace(raw)
	if k == "" || len(k) > maxKeyLen {
		return ""
	}
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(k)
}

// Get reads the cache without consulting the store.
func (r *Resolver) Get(ctx context.Context, raw string) (Summary, State) {
	key := r.Normalize(raw)
	if key == "" {
		return Summary{}, NotFound
	}
	e, ok, _ := r.cache.Get(ctx, key)
	switch {
	case !ok:
		return Summary{}, Absent
	case !e.Found:
		return Summary{}, NotFound
	default:
		return e.Summary, Found
	}
}

// Resolve returns the tenant summary for raw. found is false for unknown or
// inactive tenants. Concurrent misses for one key share a single store call.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Summary, bool, error) {
	key := r.Normalize(raw)
	if key == "" {
		return Summary{}, false, nil
	}

	if e, ok, _ := r.cache.Get(ctx, key); ok {
		inc(r.hits)
		return e.Summary, e.Found, nil
	}
	inc(r.misses)

	// The shared lookup serves every waiter, so it must not die with the
	// first caller's request.
	lookupCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key, func() (any, error) {
		t, found, err := r.store.LookupTenant(lookupCtx, key)
		if err != nil {
			return entry{}, err
		}
		e := entry{Found: found && t.Active}
		if e.Found {
			e.Summary = Summary{ID: t.ID, Slug: t.Slug, Name: t.Name}
		}
		_ = r.cache.Set(lookupCtx, key, e, r.ttl)
		return e, nil
	})
	if err != nil {
		return Summary{}, false, err
	}
	e := v.(entry)
	return e.Summary, e.Found, nil
}

// Invalidate drops the cached answer for raw.
func (r *Resolver) Invalidate(ctx context.Context, raw string) {
	if key := r.Normalize(raw); key != "" {
		_ = r.cache.Evict(ctx, key)
	}
}

// Clear empties the cache.
func (r *Resolver) Clear(ctx context.Context) {
	_ = r.cache.Clear(ctx)
}

// Len reports the number of cached keys.
func (r *Resolver) Len() int { return r.cache.Len() }

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
