// Waitlist HTTP handlers.
//
// POST /t/{tenant}/waitlist registers a party waiting for a held range.
// Entries are never auto-promoted; notification is downstream of the
// waitlist event stream.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-stay-holds/internal/http/middleware"
	"github.com/tbourn/go-stay-holds/internal/services"
)

// JoinWaitlistRequest is the JSON payload for joining a waitlist. HolderID
// defaults to the caller identity.
type JoinWaitlistRequest struct {
	ResourceID string `json:"resource_id" binding:"required,max=128" example:"room-101"`
	HolderID   string `json:"holder_id,omitempty" binding:"omitempty,max=128" example:"guest-42"`
	Contact    string `json:"contact" binding:"required,max=255" example:"guest42@example.com"`
	RangeStart string `json:"range_start" binding:"required,isodate" example:"2025-07-01"`
	RangeEnd   string `json:"range_end"   binding:"required,isodate" example:"2025-07-03"`
}

// JoinWaitlistResponse confirms the entry and reports how many parties wait
// on an overlapping range.
type JoinWaitlistResponse struct {
	Success bool   `json:"success" example:"true"`
	EntryID string `json:"entry_id" example:"0b6f7a1c-3d2e-4f5a-9b8c-7d6e5f4a3b2c"`
	Waiting int64  `json:"waiting" example:"3"`
}

// JoinWaitlist godoc
// @ID          joinWaitlist
// @Summary     Join the waitlist for a range
// @Description Appends a waitlist entry. Duplicate registrations are accepted.
// @Tags        Waitlist
// @Accept      json
// @Produce     json
// @Param       tenant     path    string  true  "Tenant slug"  example(acme)
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       body       body    handlers.JoinWaitlistRequest true "Waitlist entry"
// @Success     201  {object} handlers.JoinWaitlistResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     401  {object} handlers.ErrorResponse "Identity required"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /t/{tenant}/waitlist [post]
func (h *Handlers) JoinWaitlist(c *gin.Context) {
	var req JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput,
			"resource_id, contact, range_start and range_end are required; dates use YYYY-MM-DD")
		return
	}
	holder := req.HolderID
	if holder == "" {
		holder = middleware.UserFrom(c)
	}

	res, err := h.wlSvc.Join(c.Request.Context(), services.JoinInput{
		TenantID:   tenantID(c),
		ResourceID: req.ResourceID,
		HolderID:   holder,
		Contact:    req.Contact,
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	})
	if err != nil {
		failService(c, err)
		return
	}

	ok(c, http.StatusCreated, JoinWaitlistResponse{
		Success: true,
		EntryID: res.Entry.ID,
		Waiting: res.Waiting,
	})
}
