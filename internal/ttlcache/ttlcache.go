// Package ttlcache provides the bounded key/value stores behind the rate
// limiter buckets and the tenant resolution cache.
//
// Every entry carries its own expiry. Expiry is lazy: an entry past its
// deadline is dropped on the Get that observes it, never by a background
// sweeper. The in-memory store evicts the oldest inserted key once capacity
// is reached; overwriting an existing key keeps its original position.
package ttlcache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-stay-holds/internal/clock"
)

// Store is the contract shared by the in-memory and Redis backends.
type Store[V any] interface {
	// Get returns the live value for key. The boolean is false when the key
	// is absent or expired.
	Get(ctx context.Context, key string) (V, bool, error)
	// Set stores value under key until ttl elapses.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Evict removes key. Removing a missing key is not an error.
	Evict(ctx context.Context, key string) error
	// Clear drops every entry owned by the store.
	Clear(ctx context.Context) error
}

// DefaultMaxEntries bounds a Memory store when no capacity is configured.
const DefaultMaxEntries = 10000

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Memory is a process-local Store with insertion-order eviction.
type Memory[V any] struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
	maxEntries int
	clk        clock.Clock

	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

// Option configures a Memory store.
type Option[V any] func(*Memory[V])

// WithMaxEntries caps the number of keys. Non-positive values fall back to
// DefaultMaxEntries.
func WithMaxEntries[V any](n int) Option[V] {
	return func(m *Memory[V]) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithClock injects the time source used for expiry.
func WithClock[V any](c clock.Clock) Option[V] {
	return func(m *Memory[V]) { m.clk = clock.Or(c) }
}

// WithCounters wires optional Prometheus counters. Any of them may be nil.
func WithCounters[V any](hits, misses, evictions prometheus.Counter) Option[V] {
	return func(m *Memory[V]) {
		m.hits, m.misses, m.evictions = hits, misses, evictions
	}
}

// NewMemory returns an empty bounded store.
func NewMemory[V any](opts ...Option[V]) *Memory[V] {
	m := &Memory[V]{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: DefaultMaxEntries,
		clk:        clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get implements Store.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	var zero V
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		inc(m.misses)
		return zero, false, nil
	}
	e := el.Value.(*entry[V])
	if !m.clk.Now().Before(e.expiresAt) {
		m.removeElement(el)
		inc(m.misses)
		return zero, false, nil
	}
	inc(m.hits)
	return e.value, true, nil
}

// Set implements Store. A non-positive ttl stores nothing and removes any
// existing entry.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		if el, ok := m.items[key]; ok {
			m.removeElement(el)
		}
		return nil
	}
	exp := m.clk.Now().Add(ttl)

	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = exp
		return nil
	}

	for m.order.Len() >= m.maxEntries {
		oldest := m.order.Front()
		if oldest == nil {
			break
		}
		m.removeElement(oldest)
		inc(m.evictions)
	}
	m.items[key] = m.order.PushBack(&entry[V]{key: key, value: value, expiresAt: exp})
	return nil
}

// Evict implements Store.
func (m *Memory[V]) Evict(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
	return nil
}

// Clear implements Store.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.order.Init()
	return nil
}

// Len returns the number of stored keys, including expired ones not yet
// observed by Get.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory[V]) removeElement(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(m.items, e.key)
	m.order.Remove(el)
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
