// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the service contracts consumed by the handlers and the
// request-identity helpers shared by every endpoint.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-stay-holds/internal/countdown"
	"github.com/tbourn/go-stay-holds/internal/http/middleware"
	"github.com/tbourn/go-stay-holds/internal/services"
)

//
// Service contracts (context-aware)
//

// HoldService defines the hold lifecycle operations consumed by handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type HoldService interface {
	Check(ctx context.Context, c services.Claim) (services.CheckResult, error)
	Acquire(ctx context.Context, c services.Claim) (services.AcquireResult, error)
	Release(ctx context.Context, c services.Claim) (bool, error)
	ReleaseOnCancel(ctx context.Context, c services.Claim)
	Verify(ctx context.Context, c services.Claim) (services.VerifyResult, error)
	Complete(ctx context.Context, c services.Claim) (services.VerifyResult, error)
	Countdown(ctx context.Context, c services.Claim) (countdown.Snapshot, error)
}

// WaitlistService defines waitlist registration.
type WaitlistService interface {
	Join(ctx context.Context, in services.JoinInput) (services.JoinResult, error)
}

//
// Handler wiring
//

// Handlers groups the hold and waitlist endpoints.
type Handlers struct {
	holdSvc HoldService
	wlSvc   WaitlistService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(holdSvc HoldService, wlSvc WaitlistService) *Handlers {
	return &Handlers{holdSvc: holdSvc, wlSvc: wlSvc}
}

// tenantID returns the ID of the tenant resolved for this request, or "".
func tenantID(c *gin.Context) string {
	if t, ok := middleware.TenantFrom(c); ok {
		return t.ID
	}
	return ""
}

// failService translates service errors into the error envelope. Business
// outcomes (held, expired) never reach here; they are typed results.
func failService(c *gin.Context, err error) {
	switch {
	case services.IsInvalidInput(err):
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStorageUnavailable, msgStorage)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
