// Hold HTTP handlers.
//
// This file exposes the tenant-scoped hold endpoints:
//   - GET    /t/{tenant}/holds/check      (conflict check, identity optional)
//   - POST   /t/{tenant}/holds            (acquire)
//   - DELETE /t/{tenant}/holds            (release)
//   - POST   /t/{tenant}/holds/cancel     (release as a cancellation side effect)
//   - POST   /t/{tenant}/holds/verify     (commit-time liveness check)
//   - POST   /t/{tenant}/holds/complete   (verify and consume)
//   - GET    /t/{tenant}/holds/countdown  (timer snapshot)
//
// Handlers are transport-thin: they bind input, call HoldService, and map
// typed outcomes to status codes.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-stay-holds/internal/countdown"
	"github.com/tbourn/go-stay-holds/internal/http/middleware"
	"github.com/tbourn/go-stay-holds/internal/services"
)

const msgBadHoldInput = "resource_id, range_start and range_end are required; dates use YYYY-MM-DD"

//
// DTOs
//

// HoldRangeQuery selects a resource and date range in query parameters.
type HoldRangeQuery struct {
	ResourceID string `form:"resource_id" binding:"required,max=128" example:"room-101"`
	RangeStart string `form:"range_start" binding:"required,isodate" example:"2025-07-01"`
	RangeEnd   string `form:"range_end"   binding:"required,isodate" example:"2025-07-03"`
}

// HoldRangeRequest selects a resource and date range in a JSON body.
type HoldRangeRequest struct {
	ResourceID string `json:"resource_id" binding:"required,max=128" example:"room-101"`
	RangeStart string `json:"range_start" binding:"required,isodate" example:"2025-07-01"`
	RangeEnd   string `json:"range_end"   binding:"required,isodate" example:"2025-07-03"`
}

// AcquireHoldRequest is the JSON payload for creating a hold. TenantID is
// optional; when present it must match the tenant in the path.
type AcquireHoldRequest struct {
	ResourceID string `json:"resource_id" binding:"required,max=128" example:"room-101"`
	RangeStart string `json:"range_start" binding:"required,isodate" example:"2025-07-01"`
	RangeEnd   string `json:"range_end"   binding:"required,isodate" example:"2025-07-03"`
	TenantID   string `json:"tenant_id,omitempty" binding:"omitempty,max=64" example:"acme"`
}

// CancelHoldRequest is sent by the booking-cancellation workflow. HolderID
// defaults to the caller identity.
type CancelHoldRequest struct {
	ResourceID string `json:"resource_id" binding:"required,max=128" example:"room-101"`
	HolderID   string `json:"holder_id,omitempty" binding:"omitempty,max=128" example:"guest-42"`
	RangeStart string `json:"range_start" binding:"required,isodate" example:"2025-07-01"`
	RangeEnd   string `json:"range_end"   binding:"required,isodate" example:"2025-07-03"`
}

// CheckHoldResponse reports whether another holder blocks the range.
// LockedBy and ExpiresAt are null when the range is free.
type CheckHoldResponse struct {
	IsLocked         bool       `json:"is_locked" example:"true"`
	LockedBy         *string    `json:"locked_by" example:"guest-7"`
	ExpiresAt        *time.Time `json:"expires_at" example:"2025-06-01T12:15:00Z"`
	SecondsRemaining int        `json:"seconds_remaining" example:"839"`
}

// AcquireHoldResponse is returned when the caller owns the hold.
type AcquireHoldResponse struct {
	Success          bool      `json:"success" example:"true"`
	HoldID           string    `json:"hold_id" example:"8f7a3c1e-2b9d-4e5f-a6b7-c8d9e0f1a2b3"`
	ExpiresAt        time.Time `json:"expires_at" example:"2025-06-01T12:15:00Z"`
	SecondsRemaining int       `json:"seconds_remaining" example:"900"`
}

// HeldResponse is the 409 body: the error envelope plus the blocking hold's
// timer so clients can render the other-holder countdown.
type HeldResponse struct {
	RequestID        string    `json:"request_id,omitempty"`
	Code             string    `json:"code" example:"held"`
	Message          string    `json:"message"`
	Success          bool      `json:"success" example:"false"`
	IsLocked         bool      `json:"is_locked" example:"true"`
	LockedBy         string    `json:"locked_by" example:"guest-7"`
	ExpiresAt        time.Time `json:"expires_at" example:"2025-06-01T12:15:00Z"`
	SecondsRemaining int       `json:"seconds_remaining" example:"839"`
}

// VerifyHoldResponse is returned while the caller's hold is live.
type VerifyHoldResponse struct {
	Valid            bool      `json:"valid" example:"true"`
	HoldID           string    `json:"hold_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	SecondsRemaining int       `json:"seconds_remaining" example:"412"`
}

//
// Handlers
//

// CheckHold godoc
// @ID          checkHold
// @Summary     Check whether a range is held
// @Description Reports the soonest-expiring live hold by another holder that overlaps the range. The caller's own holds never count.
// @Tags        Holds
// @Produce     json
// @Param       tenant       path   string  true   "Tenant slug"  example(acme)
// @Param       X-User-ID    header string  false  "Caller identity"
// @Param       resource_id  query  string  true   "Resource ID"
// @Param       range_start  query  string  true   "First night (YYYY-MM-DD)"
// @Param       range_end    query  string  true   "Checkout day, exclusive (YYYY-MM-DD)"
// @Success     200  {object} handlers.CheckHoldResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable (strict mode)"
// @Router      /t/{tenant}/holds/check [get]
func (h *Handlers) CheckHold(c *gin.Context) {
	var q HoldRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return
	}

	res, err := h.holdSvc.Check(c.Request.Context(), services.Claim{
		TenantID:   tenantID(c),
		ResourceID: q.ResourceID,
		HolderID:   middleware.UserFrom(c),
		RangeStart: q.RangeStart,
		RangeEnd:   q.RangeEnd,
	})
	if err != nil {
		failService(c, err)
		return
	}

	out := CheckHoldResponse{IsLocked: res.IsLocked, ExpiresAt: res.ExpiresAt, SecondsRemaining: res.SecondsRemaining}
	if res.IsLocked {
		by := res.LockedBy
		out.LockedBy = &by
	}
	ok(c, http.StatusOK, out)
}

// AcquireHold godoc
// @ID          acquireHold
// @Summary     Acquire a hold
// @Description Claims the range for the caller for the hold TTL. Repeating the same request returns the existing hold with 200. An Idempotency-Key replay answers 410 once the hold is gone.
// @Tags        Holds
// @Accept      json
// @Produce     json
// @Param       tenant     path    string  true  "Tenant slug"  example(acme)
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       body       body    handlers.AcquireHoldRequest true "Hold request"
// @Success     201  {object} handlers.AcquireHoldResponse "Hold created"
// @Success     200  {object} handlers.AcquireHoldResponse "Existing hold"
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     401  {object} handlers.ErrorResponse "Identity required"
// @Failure     409  {object} handlers.HeldResponse  "Held by another guest"
// @Failure     410  {object} handlers.ErrorResponse "Replayed hold no longer live"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /t/{tenant}/holds [post]
func (h *Handlers) AcquireHold(c *gin.Context) {
	var req AcquireHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return
	}
	if req.TenantID != "" {
		if t, found := middleware.TenantFrom(c); found && req.TenantID != t.ID && req.TenantID != t.Slug {
			fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "tenant_id does not match the request path")
			return
		}
	}

	res, err := h.holdSvc.Acquire(c.Request.Context(), services.Claim{
		TenantID:   tenantID(c),
		ResourceID: req.ResourceID,
		HolderID:   middleware.UserFrom(c),
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	})
	if err != nil {
		failService(c, err)
		return
	}

	switch res.Outcome {
	case services.OutcomeHeld:
		held(c, res)
	case services.OutcomeExisting:
		ok(c, http.StatusOK, acquired(res))
	default:
		ok(c, http.StatusCreated, acquired(res))
	}
}

// ReleaseHold godoc
// @ID          releaseHold
// @Summary     Release a hold
// @Description Deletes the caller's hold on the exact range. Releasing a hold that does not exist succeeds.
// @Tags        Holds
// @Accept      json
// @Param       tenant     path    string  true  "Tenant slug"  example(acme)
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       body       body    handlers.HoldRangeRequest true "Hold to release"
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     401  {object} handlers.ErrorResponse "Identity required"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /t/{tenant}/holds [delete]
func (h *Handlers) ReleaseHold(c *gin.Context) {
	var req HoldRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return
	}
	if _, err := h.holdSvc.Release(c.Request.Context(), claimFrom(c, req)); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// CancelHold godoc
// @ID          cancelHold
// @Summary     Release a hold after a booking cancellation
// @Description Best-effort release triggered by the cancellation workflow. Accepted regardless of whether the release succeeds; a request naming no holder is rejected.
// @Tags        Holds
// @Accept      json
// @Produce     json
// @Param       tenant     path    string  true  "Tenant slug"  example(acme)
// @Param       X-User-ID  header  string  false "Caller identity (used when holder_id is empty)"
// @Param       body       body    handlers.CancelHoldRequest true "Hold to release"
// @Success     202  {object} map[string]bool
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Router      /t/{tenant}/holds/cancel [post]
func (h *Handlers) CancelHold(c *gin.Context) {
	var req CancelHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return
	}
	holder := req.HolderID
	if holder == "" {
		holder = middleware.UserFrom(c)
	}
	if holder == "" {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "holder_id or X-User-ID is required")
		return
	}
	h.holdSvc.ReleaseOnCancel(c.Request.Context(), services.Claim{
		TenantID:   tenantID(c),
		ResourceID: req.ResourceID,
		HolderID:   holder,
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	})
	ok(c, http.StatusAccepted, gin.H{"accepted": true})
}

// VerifyHold godoc
// @ID          verifyHold
// @Summary     Re-validate a hold at commit time
// @Description Confirms the caller still owns a live hold. Client timers are advisory; this is the authoritative check.
// @Tags        Holds
// @Accept      json
// @Produce     json
// @Param       tenant     path    string  true  "Tenant slug"  example(acme)
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       body       body    handlers.HoldRangeRequest true "Hold to verify"
// @Success     200  {object} handlers.VerifyHoldResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     410  {object} handlers.ErrorResponse "Hold expired, start over"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /t/{tenant}/holds/verify [post]
func (h *Handlers) VerifyHold(c *gin.Context) {
	var req HoldRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return
	}
	res, err := h.holdSvc.Verify(c.Request.Context(), claimFrom(c, req))
	h.writeVerdict(c, res, err)
}

// CompleteHold godoc
// @ID          completeHold
// @Summary     Verify and consume a hold
// @Description Called by the booking commit: succeeds only while the hold is live, and removes it.
// @Tags        Holds
// @Accept      json
// @Produce     json
// @Param       tenant     path    string  true  "Tenant slug"  example(acme)
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       body       body    handlers.HoldRangeRequest true "Hold to complete"
// @Success     200  {object} handlers.VerifyHoldResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     410  {object} handlers.ErrorResponse "Hold expired, start over"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /t/{tenant}/holds/complete [post]
func (h *Handlers) CompleteHold(c *gin.Context) {
	var req HoldRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return
	}
	res, err := h.holdSvc.Complete(c.Request.Context(), claimFrom(c, req))
	h.writeVerdict(c, res, err)
}

// HoldCountdown godoc
// @ID          holdCountdown
// @Summary     Countdown snapshot
// @Description Server-anchored timers for the other-holder and own-hold countdowns, with server_time for clock-offset correction.
// @Tags        Holds
// @Produce     json
// @Param       tenant       path   string  true   "Tenant slug"  example(acme)
// @Param       X-User-ID    header string  false  "Caller identity"
// @Param       resource_id  query  string  true   "Resource ID"
// @Param       range_start  query  string  true   "First night (YYYY-MM-DD)"
// @Param       range_end    query  string  true   "Checkout day, exclusive (YYYY-MM-DD)"
// @Success     200  {object} countdown.Snapshot
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /t/{tenant}/holds/countdown [get]
func (h *Handlers) HoldCountdown(c *gin.Context) {
	var q HoldRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return
	}
	snap, err := h.holdSvc.Countdown(c.Request.Context(), services.Claim{
		TenantID:   tenantID(c),
		ResourceID: q.ResourceID,
		HolderID:   middleware.UserFrom(c),
		RangeStart: q.RangeStart,
		RangeEnd:   q.RangeEnd,
	})
	if err != nil {
		failService(c, err)
		return
	}
	if snap.State == countdown.StateExpired {
		c.Header("Cache-Control", "no-store")
	}
	ok(c, http.StatusOK, snap)
}

// ReplayAcquire re-checks a stored acquire response before it is replayed
// for a repeated Idempotency-Key. A hold that has lapsed, been released, or
// been replaced answers 410 hold_expired; a live one is answered with its
// current expiry and countdown. Always answers itself except when the
// stored body is not an acquire response.
func (h *Handlers) ReplayAcquire(c *gin.Context, stored middleware.StoredResponse) bool {
	var prev AcquireHoldResponse
	if err := json.Unmarshal(stored.Body, &prev); err != nil || prev.HoldID == "" {
		return true
	}
	var req AcquireHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, msgBadHoldInput)
		return false
	}
	res, err := h.holdSvc.Verify(c.Request.Context(), claimFrom(c, HoldRangeRequest{
		ResourceID: req.ResourceID,
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	}))
	if err != nil {
		failService(c, err)
		return false
	}
	if !res.Valid || res.Hold == nil || res.Hold.ID != prev.HoldID {
		fail(c, http.StatusGone, ErrCodeHoldExpired, msgHoldExpired)
		return false
	}
	c.Header(middleware.HeaderIdempotentReplay, "true")
	prev.ExpiresAt = res.Hold.ExpiresAt
	prev.SecondsRemaining = res.SecondsRemaining
	ok(c, stored.Status, prev)
	return false
}

//
// helpers
//

func claimFrom(c *gin.Context, req HoldRangeRequest) services.Claim {
	return services.Claim{
		TenantID:   tenantID(c),
		ResourceID: req.ResourceID,
		HolderID:   middleware.UserFrom(c),
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	}
}

func acquired(res services.AcquireResult) AcquireHoldResponse {
	return AcquireHoldResponse{
		Success:          true,
		HoldID:           res.Hold.ID,
		ExpiresAt:        res.Hold.ExpiresAt,
		SecondsRemaining: res.SecondsRemaining,
	}
}

func held(c *gin.Context, res services.AcquireResult) {
	c.AbortWithStatusJSON(http.StatusConflict, HeldResponse{
		RequestID:        c.Writer.Header().Get("X-Request-ID"),
		Code:             ErrCodeHeld,
		Message:          msgHeld,
		Success:          false,
		IsLocked:         true,
		LockedBy:         res.Hold.HolderID,
		ExpiresAt:        res.Hold.ExpiresAt,
		SecondsRemaining: res.SecondsRemaining,
	})
}

func (h *Handlers) writeVerdict(c *gin.Context, res services.VerifyResult, err error) {
	if err != nil {
		failService(c, err)
		return
	}
	if !res.Valid {
		fail(c, http.StatusGone, ErrCodeHoldExpired, msgHoldExpired)
		return
	}
	ok(c, http.StatusOK, VerifyHoldResponse{
		Valid:            true,
		HoldID:           res.Hold.ID,
		ExpiresAt:        res.Hold.ExpiresAt,
		SecondsRemaining: res.SecondsRemaining,
	})
}
