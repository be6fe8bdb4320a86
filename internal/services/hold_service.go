// Package services – HoldService
//
// This file implements HoldService, the lock lifecycle manager. It validates
// claims, answers conflict checks, acquires holds under a per-resource
// storage lock, releases them, and re-validates them at booking-commit time.
//
// Failure policy: a storage read failure during Check fails OPEN (reports
// "not locked") unless strict mode is enabled; every write path fails CLOSED
// with ErrStorageUnavailable.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// carry the resource and holder identifiers.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-stay-holds/internal/clock"
	"github.com/tbourn/go-stay-holds/internal/countdown"
	"github.com/tbourn/go-stay-holds/internal/domain"
	"github.com/tbourn/go-stay-holds/internal/observability"
	"github.com/tbourn/go-stay-holds/internal/repo"
)

const (
	// DefaultHoldTTL is how long a new hold lives.
	DefaultHoldTTL = 15 * time.Minute
	// DefaultMaxNights caps the length of a held range.
	DefaultMaxNights = 60

	maxIDLen = 128
)

// Claim identifies a (tenant, resource, range) triple and, optionally, the
// caller. Holds under different tenants never conflict.
type Claim struct {
	TenantID   string
	ResourceID string
	HolderID   string
	RangeStart string
	RangeEnd   string
}

// CheckResult is the answer to a conflict check.
type CheckResult struct {
	IsLocked         bool
	LockedBy         string
	ExpiresAt        *time.Time
	SecondsRemaining int
	// FailedOpen is set when the lock store could not be read and the
	// check reported "not locked" anyway.
	FailedOpen bool
}

// Outcome classifies an acquire attempt.
type Outcome string

const (
	// OutcomeAcquired means a new hold was stored.
	OutcomeAcquired Outcome = "acquired"
	// OutcomeExisting means the caller already held this exact claim.
	OutcomeExisting Outcome = "existing"
	// OutcomeHeld means another holder's live hold blocks the claim.
	OutcomeHeld Outcome = "held"
)

// AcquireResult reports an acquire attempt. Hold is the caller's hold for
// Acquired/Existing and the blocking hold for Held.
type AcquireResult struct {
	Outcome          Outcome
	Hold             *domain.Hold
	SecondsRemaining int
}

// VerifyResult reports whether the caller still owns a live hold.
type VerifyResult struct {
	Valid            bool
	Hold             *domain.Hold
	SecondsRemaining int
}

// HoldService coordinates hold checks, acquisition, and release.
type HoldService struct {
	db         *gorm.DB
	clk        clock.Clock
	ttl        time.Duration
	maxNights  int
	failClosed bool
}

// HoldServiceOption customizes a HoldService.
type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxNights overrides the maximum range length.
func WithMaxNights(n int) HoldServiceOption {
	return func(s *HoldService) {
		if n > 0 {
			s.maxNights = n
		}
	}
}

// WithCheckFailClosed makes Check return ErrStorageUnavailable on storage
// read failures instead of reporting "not locked".
func WithCheckFailClosed(v bool) HoldServiceOption {
	return func(s *HoldService) { s.failClosed = v }
}

// NewHoldService returns a HoldService over db. A nil clock means the system
// clock.
func NewHoldService(db *gorm.DB, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	s := &HoldService{
		db:        db,
		clk:       clock.Or(clk),
		ttl:       DefaultHoldTTL,
		maxNights: DefaultMaxNights,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured hold lifetime.
func (s *HoldService) TTL() time.Duration { return s.ttl }

// Now returns the service clock's current time.
func (s *HoldService) Now() time.Time { return s.clk.Now() }

func (s *HoldService) span(ctx context.Context, name string, c Claim) (context.Context, trace.Span) {
	return observability.Tracer("services/HoldService").Start(ctx, name,
		trace.WithAttributes(observability.ClaimAttributes(c.TenantID, c.ResourceID, c.HolderID, c.RangeStart, c.RangeEnd)...),
	)
}

// parse validates the parts of a claim every operation needs.
func parse(c Claim) (domain.DateRange, error) {
	if strings.TrimSpace(c.ResourceID) == "" || len(c.ResourceID) > maxIDLen {
		return domain.DateRange{}, ErrInvalidResource
	}
	if len(c.HolderID) > maxIDLen {
		return domain.DateRange{}, ErrHolderRequired
	}
	r, err := domain.ParseDateRange(c.RangeStart, c.RangeEnd)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return r, nil
}

func parseWithHolder(c Claim) (domain.DateRange, error) {
	r, err := parse(c)
	if err != nil {
		return r, err
	}
	if strings.TrimSpace(c.HolderID) == "" {
		return r, ErrHolderRequired
	}
	return r, nil
}

// validateNew applies the rules that only matter when creating a hold.
// Ranges starting yesterday (UTC) are still accepted so callers west of UTC
// can hold their local "today".
func (s *HoldService) validateNew(r domain.DateRange, now time.Time) error {
	if r.Nights() > s.maxNights {
		return ErrRangeTooLong
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if r.Start.Before(today.AddDate(0, 0, -1)) {
		return ErrRangeInPast
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// Check reports whether a live hold by someone other than c.HolderID blocks
// the claim. HolderID may be empty, in which case every hold counts.
func (s *HoldService) Check(ctx context.Context, c Claim) (CheckResult, error) {
	ctx, span := s.span(ctx, "Check", c)
	defer span.End()

	r, err := parse(c)
	if err != nil {
		return CheckResult{}, err
	}

	now := s.clk.Now()
	holds, err := repo.ListLiveHolds(ctx, s.db, c.TenantID, c.ResourceID, now)
	if err != nil {
		span.RecordError(err)
		if s.failClosed {
			return CheckResult{}, unavailable(err)
		}
		observability.CheckFailOpen.Inc()
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("resource_id", c.ResourceID).
			Msg("hold check failed open")
		return CheckResult{FailedOpen: true}, nil
	}

	blk := FindConflict(holds, r, c.HolderID, now)
	if blk == nil {
		return CheckResult{}, nil
	}
	exp := blk.ExpiresAt
	return CheckResult{
		IsLocked:         true,
		LockedBy:         blk.HolderID,
		ExpiresAt:        &exp,
		SecondsRemaining: blk.SecondsRemaining(now),
	}, nil
}

// Acquire claims the range for c.HolderID.
//
// A fast pre-check answers Held without taking the write lock. The
// authoritative decision runs inside repo.WithResourceLock, where the
// conflict check and insert are serialized against every other writer on
// the resource.
func (s *HoldService) Acquire(ctx context.Context, c Claim) (AcquireResult, error) {
	ctx, span := s.span(ctx, "Acquire", c)
	defer span.End()

	r, err := parseWithHolder(c)
	if err != nil {
		return AcquireResult{}, err
	}
	now := s.clk.Now()
	if err := s.validateNew(r, now); err != nil {
		return AcquireResult{}, err
	}

	// Pre-check errors are ignored; the locked step below decides.
	if holds, err := repo.ListLiveHolds(ctx, s.db, c.TenantID, c.ResourceID, now); err == nil {
		if blk := FindConflict(holds, r, c.HolderID, now); blk != nil {
			observability.HoldOutcomes.WithLabelValues(string(OutcomeHeld)).Inc()
			return AcquireResult{Outcome: OutcomeHeld, Hold: blk, SecondsRemaining: blk.SecondsRemaining(now)}, nil
		}
	}

	var res AcquireResult
	err = repo.WithResourceLock(ctx, s.db, c.TenantID, c.ResourceID, now, func(tx *gorm.DB) error {
		holds, err := repo.ListLiveHolds(ctx, tx, c.TenantID, c.ResourceID, now)
		if err != nil {
			return err
		}
		if blk := FindConflict(holds, r, c.HolderID, now); blk != nil {
			res = AcquireResult{Outcome: OutcomeHeld, Hold: blk}
			return nil
		}
		if own := findOwn(holds, c.ResourceID, c.HolderID, r, now); own != nil {
			res = AcquireResult{Outcome: OutcomeExisting, Hold: own}
			return nil
		}
		h := &domain.Hold{
			ID:         uuid.NewString(),
			TenantID:   c.TenantID,
			ResourceID: c.ResourceID,
			HolderID:   c.HolderID,
			RangeStart: r.StartKey(),
			RangeEnd:   r.EndKey(),
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.ttl),
		}
		if err := repo.CreateHold(ctx, tx, h); err != nil {
			return err
		}
		res = AcquireResult{Outcome: OutcomeAcquired, Hold: h}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		observability.HoldOutcomes.WithLabelValues("error").Inc()
		zerolog.Ctx(ctx).Error().Err(err).
			Str("resource_id", c.ResourceID).
			Msg("hold acquire failed")
		return AcquireResult{}, unavailable(err)
	}

	res.SecondsRemaining = res.Hold.SecondsRemaining(now)
	observability.HoldOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	span.SetAttributes(attribute.String("hold.outcome", string(res.Outcome)))
	return res, nil
}

// Release deletes the caller's holds on the exact claim. Releasing nothing
// is not an error; the boolean reports whether a row went away.
func (s *HoldService) Release(ctx context.Context, c Claim) (bool, error) {
	ctx, span := s.span(ctx, "Release", c)
	defer span.End()

	r, err := parseWithHolder(c)
	if err != nil {
		return false, err
	}
	n, err := repo.DeleteHolds(ctx, s.db, c.TenantID, c.ResourceID, c.HolderID, r.StartKey(), r.EndKey())
	if err != nil {
		span.RecordError(err)
		return false, unavailable(err)
	}
	if n > 0 {
		observability.HoldOutcomes.WithLabelValues("released").Inc()
	}
	return n > 0, nil
}

// ReleaseOnCancel is the side effect of an external booking cancellation.
// It never fails the caller's workflow: errors are logged and dropped.
func (s *HoldService) ReleaseOnCancel(ctx context.Context, c Claim) {
	if _, err := s.Release(ctx, c); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("resource_id", c.ResourceID).
			Str("holder_id", c.HolderID).
			Msg("release on cancel failed")
	}
}

// Verify re-validates the caller's hold at commit time, independent of any
// client timer. A missing or lapsed hold is reported as Valid=false.
func (s *HoldService) Verify(ctx context.Context, c Claim) (VerifyResult, error) {
	ctx, span := s.span(ctx, "Verify", c)
	defer span.End()

	r, err := parseWithHolder(c)
	if err != nil {
		return VerifyResult{}, err
	}
	now := s.clk.Now()
	h, err := repo.FindHold(ctx, s.db, c.TenantID, c.ResourceID, c.HolderID, r.StartKey(), r.EndKey())
	if errors.Is(err, repo.ErrNotFound) {
		return VerifyResult{}, nil
	}
	if err != nil {
		span.RecordError(err)
		return VerifyResult{}, unavailable(err)
	}
	return verdict(h, now), nil
}

// Complete verifies the caller's hold and consumes it in one locked
// transaction, so a booking commit either finds a live hold and removes it or
// reports Valid=false.
func (s *HoldService) Complete(ctx context.Context, c Claim) (VerifyResult, error) {
	ctx, span := s.span(ctx, "Complete", c)
	defer span.End()

	r, err := parseWithHolder(c)
	if err != nil {
		return VerifyResult{}, err
	}
	now := s.clk.Now()

	var res VerifyResult
	err = repo.WithResourceLock(ctx, s.db, c.TenantID, c.ResourceID, now, func(tx *gorm.DB) error {
		h, err := repo.FindHold(ctx, tx, c.TenantID, c.ResourceID, c.HolderID, r.StartKey(), r.EndKey())
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res = verdict(h, now)
		if !res.Valid {
			return nil
		}
		_, err = repo.DeleteHolds(ctx, tx, c.TenantID, c.ResourceID, c.HolderID, r.StartKey(), r.EndKey())
		return err
	})
	if err != nil {
		span.RecordError(err)
		return VerifyResult{}, unavailable(err)
	}
	if res.Valid {
		observability.HoldOutcomes.WithLabelValues("completed").Inc()
	}
	return res, nil
}

func verdict(h *domain.Hold, now time.Time) VerifyResult {
	if h.IsExpired(now) {
		return VerifyResult{Valid: false, Hold: h}
	}
	return VerifyResult{Valid: true, Hold: h, SecondsRemaining: h.SecondsRemaining(now)}
}

// Countdown builds the timer snapshot for the claim. Without a holder only
// the other-holder timer can be derived.
func (s *HoldService) Countdown(ctx context.Context, c Claim) (countdown.Snapshot, error) {
	ctx, span := s.span(ctx, "Countdown", c)
	defer span.End()

	r, err := parse(c)
	if err != nil {
		return countdown.Snapshot{}, err
	}
	now := s.clk.Now()

	holds, err := repo.ListLiveHolds(ctx, s.db, c.TenantID, c.ResourceID, now)
	if err != nil {
		span.RecordError(err)
		return countdown.Snapshot{}, unavailable(err)
	}
	blk := FindConflict(holds, r, c.HolderID, now)

	var own *domain.Hold
	if c.HolderID != "" {
		own, err = repo.FindHold(ctx, s.db, c.TenantID, c.ResourceID, c.HolderID, r.StartKey(), r.EndKey())
		if errors.Is(err, repo.ErrNotFound) {
			own = nil
		} else if err != nil {
			span.RecordError(err)
			return countdown.Snapshot{}, unavailable(err)
		}
	}
	return countdown.Build(now, own, blk), nil
}
