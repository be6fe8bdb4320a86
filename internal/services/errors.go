// Package services defines the business logic for reservation holds and the
// waitlist. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Held and Expired are not errors: they are expected outcomes reported through
// AcquireResult and VerifyResult. The values below cover malformed input and
// infrastructure faults only. Translation into user-facing messages or HTTP
// status codes is performed at the handler layer.
package services

import "errors"

// Input errors. All of them map to "fix your input".
var (
	// ErrInvalidResource is returned when resource_id is blank or too long.
	ErrInvalidResource = errors.New("resource_id is required")

	// ErrHolderRequired is returned when an operation needs a caller
	// identity and none was supplied.
	ErrHolderRequired = errors.New("a valid holder identity is required")

	// ErrInvalidRange is returned when range_start/range_end are malformed
	// or the range is empty.
	ErrInvalidRange = errors.New("range must be two YYYY-MM-DD dates with range_end after range_start")

	// ErrRangeTooLong is returned when a range spans more nights than the
	// configured maximum.
	ErrRangeTooLong = errors.New("range exceeds the maximum number of nights")

	// ErrRangeInPast is returned when a hold is requested for dates that
	// have already started.
	ErrRangeInPast = errors.New("range starts in the past")

	// ErrContactRequired is returned when a waitlist entry has no contact.
	ErrContactRequired = errors.New("contact is required")
)

// ErrStorageUnavailable wraps lock store and waitlist store failures on
// paths that fail closed.
var ErrStorageUnavailable = errors.New("storage unavailable")

// IsInvalidInput reports whether err is one of the input errors above.
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		ErrInvalidResource, ErrHolderRequired, ErrInvalidRange,
		ErrRangeTooLong, ErrRangeInPast, ErrContactRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
