// Package domain defines the core persistence models for the reservation hold
// subsystem. These types are used by GORM for schema mapping and are shared
// across the repository, service, and HTTP layers.
package domain

import (
	"errors"
	"time"
)

// DateLayout is the wire and storage format for range boundaries (ISO date).
const DateLayout = "2006-01-02"

var (
	// ErrInvalidDate is returned when a range boundary is not a YYYY-MM-DD date.
	ErrInvalidDate = errors.New("dates must be formatted as YYYY-MM-DD")
	// ErrEmptyRange is returned when range_end is not after range_start.
	ErrEmptyRange = errors.New("range_end must be after range_start")
)

// DateRange is a half-open interval of calendar dates [Start, End).
// Both bounds are UTC midnights.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two ISO dates into a non-empty DateRange.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	if !e.After(s) {
		return DateRange{}, ErrEmptyRange
	}
	return DateRange{Start: s, End: e}, nil
}

// Overlaps reports whether r and o share at least one night.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}

// Contains reports whether o lies entirely within r.
func (r DateRange) Contains(o DateRange) bool {
	return !o.Start.Before(r.Start) && !o.End.After(r.End)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// StartKey returns the storage form of Start.
func (r DateRange) StartKey() string { return r.Start.Format(DateLayout) }

// EndKey returns the storage form of End.
func (r DateRange) EndKey() string { return r.End.Format(DateLayout) }

// Hold is a time-bounded exclusive claim on a resource and date range for a
// single holder. A hold is live while now < ExpiresAt; expired rows are simply
// ignored by conflict queries.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - TenantID: tenant the hold was created under. Resource IDs are only
//     unique within a tenant, so every lookup is scoped by both.
//   - ResourceID: accommodation unit being held (indexed with TenantID and ExpiresAt).
//   - HolderID: identity of the guest owning the hold.
//   - RangeStart / RangeEnd: ISO dates, end exclusive.
//   - CreatedAt / ExpiresAt: ExpiresAt = CreatedAt + TTL, never renewed.
type Hold struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	TenantID   string    `json:"tenant_id"   gorm:"type:varchar(64);not null;default:'';index:idx_holds_resource_live,priority:1"`
	ResourceID string    `json:"resource_id" gorm:"type:varchar(128);not null;index:idx_holds_resource_live,priority:2"`
	HolderID   string    `json:"holder_id"   gorm:"type:varchar(128);not null;index:idx_holds_holder"`
	RangeStart string    `json:"range_start" gorm:"type:char(10);not null"`
	RangeEnd   string    `json:"range_end"   gorm:"type:char(10);not null;check:range_end > range_start"`
	CreatedAt  time.Time `json:"created_at"  gorm:"not null"`
	ExpiresAt  time.Time `json:"expires_at"  gorm:"not null;index:idx_holds_resource_live,priority:3"`
}

// TableName returns the database table name for Hold.
func (Hold) TableName() string { return "holds" }

// Range returns the hold's date range. Stored rows always carry valid dates;
// a malformed row yields the zero range, which overlaps nothing.
func (h Hold) Range() DateRange {
	r, err := ParseDateRange(h.RangeStart, h.RangeEnd)
	if err != nil {
		return DateRange{}
	}
	return r
}

// IsExpired reports whether the hold has lapsed at now (now >= ExpiresAt).
func (h Hold) IsExpired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Remaining returns the time left before expiry, never negative.
func (h Hold) Remaining(now time.Time) time.Duration {
	if d := h.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// SecondsRemaining returns Remaining truncated to whole seconds.
func (h Hold) SecondsRemaining(now time.Time) int {
	return int(h.Remaining(now) / time.Second)
}

// SameClaim reports whether h is the exact (resource, holder, range) claim.
func (h Hold) SameClaim(resourceID, holderID string, r DateRange) bool {
	return h.ResourceID == resourceID &&
		h.HolderID == holderID &&
		h.RangeStart == r.StartKey() &&
		h.RangeEnd == r.EndKey()
}

// ResourceGuard is a per-(tenant, resource) row that every hold write
// transaction upserts first. The upsert takes the storage engine's write lock (SQLite) or
// row lock (PostgreSQL), so hold writes on one resource are serialized by the
// database rather than by the application.
type ResourceGuard struct {
	TenantID   string    `gorm:"type:varchar(64);primaryKey"`
	ResourceID string    `gorm:"type:varchar(128);primaryKey"`
	Version    int64     `gorm:"not null;default:0"`
	TouchedAt  time.Time `gorm:"not null"`
}

// TableName returns the database table name for ResourceGuard.
func (ResourceGuard) TableName() string { return "resource_guards" }
