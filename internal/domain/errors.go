package domain

import "errors"

// Domain errors
var (
	// Validation errors
	ErrInvalidRestaurantID = errors.New("invalid restaurant id")
	ErrInvalidCustomerID   = errors.New("invalid customer id")
	ErrInvalidPartySize    = errors.New("party size must be at least one")
	ErrInvalidDate         = errors.New("invalid or unparsable date")
	ErrInvalidSlotStart    = errors.New("slot start is not a bookable slot")
	ErrDateOutOfWindow     = errors.New("date is outside the booking window")
	ErrInvalidTableNumber  = errors.New("invalid table number")
	ErrInvalidCapacity     = errors.New("table capacity must be positive")
	ErrRuleInterval        = errors.New("opening rule close time must be after open time")
	ErrRuleOverlap         = errors.New("opening rules overlap for the same weekday")

	// Allocation errors
	ErrNoTableAvailable = errors.New("no table available for the requested slot")
	ErrSlotLockTimeout  = errors.New("timed out acquiring slot lock")
	ErrCapacityConflict = errors.New("slot capacity changed concurrently")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid reservation state transition")
	ErrSeatBeforeSlot    = errors.New("cannot seat a party before the slot start")

	// Not-found errors
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrTableNotFound       = errors.New("table not found")
)

// IsValidationError reports whether the error is caused by malformed input.
// These are never retried and always surface immediately.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRestaurantID) ||
		errors.Is(err, ErrInvalidCustomerID) ||
		errors.Is(err, ErrInvalidPartySize) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidSlotStart) ||
		errors.Is(err, ErrDateOutOfWindow) ||
		errors.Is(err, ErrInvalidTableNumber) ||
		errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrRuleInterval) ||
		errors.Is(err, ErrRuleOverlap)
}

// IsRetryableError reports whether the error is an expected concurrency
// failure that may be retried locally with bounded backoff.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrSlotLockTimeout) ||
		errors.Is(err, ErrCapacityConflict)
}

// IsConflictError reports whether the error means the requested slot or
// table is no longer obtainable.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrNoTableAvailable) ||
		errors.Is(err, ErrCapacityConflict) ||
		errors.Is(err, ErrSlotLockTimeout)
}

// IsNotFoundError reports whether the error is a missing-entity error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRestaurantNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrTableNotFound)
}
