// Package services – WaitlistService
//
// WaitlistService appends waitlist entries and announces them to the
// external notifier. Entries are never deduplicated. Announcements are
// best-effort: a broker failure is logged and counted but never fails the
// request, since the entry is already durable.
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-stay-holds/internal/clock"
	"github.com/tbourn/go-stay-holds/internal/domain"
	"github.com/tbourn/go-stay-holds/internal/events"
	"github.com/tbourn/go-stay-holds/internal/observability"
	"github.com/tbourn/go-stay-holds/internal/repo"
)

const maxContactLen = 255

// JoinInput is a waitlist registration request.
type JoinInput struct {
	TenantID   string
	ResourceID string
	HolderID   string
	Contact    string
	RangeStart string
	RangeEnd   string
}

// JoinResult is the stored entry plus how many entries now wait on an
// overlapping range of the same resource.
type JoinResult struct {
	Entry   *domain.WaitlistEntry
	Waiting int64
}

// WaitlistService registers parties waiting for a held range.
type WaitlistService struct {
	DB        *gorm.DB
	Clock     clock.Clock
	Publisher events.Publisher
}

// Join validates and appends the entry, then publishes a joined event.
func (s *WaitlistService) Join(ctx context.Context, in JoinInput) (JoinResult, error) {
	tr := observability.Tracer("services/WaitlistService")
	ctx, span := tr.Start(ctx, "Join",
		trace.WithAttributes(observability.ClaimAttributes(in.TenantID, in.ResourceID, in.HolderID, in.RangeStart, in.RangeEnd)...),
	)
	defer span.End()

	r, err := parseWithHolder(Claim{
		ResourceID: in.ResourceID,
		HolderID:   in.HolderID,
		RangeStart: in.RangeStart,
		RangeEnd:   in.RangeEnd,
	})
	if err != nil {
		return JoinResult{}, err
	}
	contact := strings.TrimSpace(in.Contact)
	if contact == "" || len(contact) > maxContactLen {
		return JoinResult{}, ErrContactRequired
	}

	e := &domain.WaitlistEntry{
		ID:         uuid.NewString(),
		TenantID:   in.TenantID,
		ResourceID: in.ResourceID,
		HolderID:   in.HolderID,
		Contact:    contact,
		RangeStart: r.StartKey(),
		RangeEnd:   r.EndKey(),
		CreatedAt:  clock.Or(s.Clock).Now(),
	}
	if err := repo.CreateWaitlistEntry(ctx, s.DB, e); err != nil {
		span.RecordError(err)
		return JoinResult{}, unavailable(err)
	}

	waiting, _, err := repo.WaitlistStats(ctx, s.DB, e.TenantID, e.ResourceID, e.RangeStart, e.RangeEnd)
	if err != nil {
		// The entry is stored; a missing count is not worth failing for.
		zerolog.Ctx(ctx).Warn().Err(err).Str("resource_id", e.ResourceID).Msg("waitlist stats failed")
		waiting = 0
	}

	span.SetAttributes(attribute.Int64("waitlist.waiting", waiting))
	s.publish(ctx, e)
	return JoinResult{Entry: e, Waiting: waiting}, nil
}

func (s *WaitlistService) publish(ctx context.Context, e *domain.WaitlistEntry) {
	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishWaitlistJoined(ctx, events.WaitlistJoined{
		EntryID:    e.ID,
		TenantID:   e.TenantID,
		ResourceID: e.ResourceID,
		HolderID:   e.HolderID,
		Contact:    e.Contact,
		RangeStart: e.RangeStart,
		RangeEnd:   e.RangeEnd,
		CreatedAt:  e.CreatedAt,
	})
	if err != nil {
		observability.WaitlistPublishFailures.Inc()
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("entry_id", e.ID).
			Msg("waitlist event publish failed")
	}
}
