// Package countdown derives the client-facing hold timers from server state.
//
// Clients must seed every countdown from a Snapshot and re-fetch one on
// reconnect, on window focus, and when ResyncAfterSeconds elapses. The
// ServerTime field lets a client compute its clock offset; client timers are
// advisory only and the server re-validates the hold at commit time.
package countdown

import (
	"time"

	"github.com/tbourn/go-stay-holds/internal/domain"
)

// State is the checkout-flow state a client should render.
type State string

const (
	// StateFree means no live hold blocks the range and the caller has none.
	StateFree State = "free"
	// StateHeldByOther means another holder's live hold blocks the range.
	StateHeldByOther State = "held_by_other"
	// StateHolding means the caller owns a live hold on the range.
	StateHolding State = "holding"
	// StateExpired means the caller's hold lapsed. Terminal: start over.
	StateExpired State = "expired"
)

// DefaultResync is the longest a client should run a timer without
// re-fetching a snapshot.
const DefaultResync = 30 * time.Second

// Timer is one countdown anchored to a server-recorded expiry.
type Timer struct {
	HoldID           string    `json:"hold_id,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	SecondsRemaining int       `json:"seconds_remaining"`
}

// Snapshot is the full countdown contract for one (resource, range, holder).
type Snapshot struct {
	State              State     `json:"state"`
	ServerTime         time.Time `json:"server_time"`
	Own                *Timer    `json:"own,omitempty"`
	Blocking           *Timer    `json:"blocking,omitempty"`
	LockedBy           string    `json:"locked_by,omitempty"`
	PaymentAllowed     bool      `json:"payment_allowed"`
	ResyncAfterSeconds int       `json:"resync_after_seconds"`
}

func timerFor(h *domain.Hold, now time.Time, withID bool) *Timer {
	t := &Timer{ExpiresAt: h.ExpiresAt, SecondsRemaining: h.SecondsRemaining(now)}
	if withID {
		t.HoldID = h.ID
	}
	return t
}

// Build assembles a Snapshot. own is the caller's latest hold on the exact
// range (live or not) and blocking is the conflicting hold reported by the
// resolver; either may be nil.
func Build(now time.Time, own, blocking *domain.Hold) Snapshot {
	s := Snapshot{State: StateFree, ServerTime: now}

	if blocking != nil && !blocking.IsExpired(now) {
		s.State = StateHeldByOther
		s.Blocking = timerFor(blocking, now, false)
		s.LockedBy = blocking.HolderID
		s.ResyncAfterSeconds = resyncFor(blocking.Remaining(now))
		return s
	}

	if own == nil {
		s.ResyncAfterSeconds = int(DefaultResync / time.Second)
		return s
	}

	s.Own = timerFor(own, now, true)
	if own.IsExpired(now) {
		s.State = StateExpired
		return s
	}
	s.State = StateHolding
	s.PaymentAllowed = true
	s.ResyncAfterSeconds = resyncFor(own.Remaining(now))
	return s
}

// resyncFor caps the hint at DefaultResync and asks for a refresh right at
// expiry when that comes sooner.
func resyncFor(remaining time.Duration) int {
	if remaining > DefaultResync {
		remaining = DefaultResync
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
