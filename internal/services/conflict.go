package services

import (
	"time"

	"github.com/tbourn/go-stay-holds/internal/domain"
)

// FindConflict returns the hold in holds that blocks requester from r at now,
// or nil. A hold blocks when it is live, its range overlaps r, and it belongs
// to a different holder; an empty requester is blocked by every live
// overlapping hold. When several holds block, the one expiring soonest wins,
// ties broken by lowest ID, so callers see the same answer regardless of
// storage order.
func FindConflict(holds []domain.Hold, r domain.DateRange, requester string, now time.Time) *domain.Hold {
	var best *domain.Hold
	for i := range holds {
		h := &holds[i]
		if h.IsExpired(now) || h.HolderID == requester {
			continue
		}
		if !h.Range().Overlaps(r) {
			continue
		}
		if best == nil ||
			h.ExpiresAt.Before(best.ExpiresAt) ||
			(h.ExpiresAt.Equal(best.ExpiresAt) && h.ID < best.ID) {
			best = h
		}
	}
	return best
}

// findOwn returns holder's live hold on exactly r, if any.
func findOwn(holds []domain.Hold, resourceID, holderID string, r domain.DateRange, now time.Time) *domain.Hold {
	for i := range holds {
		h := &holds[i]
		if !h.IsExpired(now) && h.SameClaim(resourceID, holderID, r) {
			return h
		}
	}
	return nil
}
