// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). Clients branch on these
// codes; the taxonomy separates "try again later" (held, rate_limited,
// storage_unavailable) from "start over" (hold_expired) and "fix your input"
// (invalid_input).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "hold_expired",
//	  "message": "your hold has expired, please start over"
//	}
package handlers

const (
	ErrCodeInvalidInput       = "invalid_input"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeNotFound           = "not_found"
	ErrCodeHeld               = "held"
	ErrCodeHoldExpired        = "hold_expired"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeStorageUnavailable = "storage_unavailable"
	ErrCodeInternal           = "internal_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)

// User-facing messages for the business outcomes.
const (
	msgHeld        = "these dates are being held by another guest, try again later"
	msgHoldExpired = "your hold has expired, please start over"
	msgStorage     = "hold storage is unavailable, try again later"
)
