package models

import "errors"

// Structured error kinds surfaced by services. Handlers translate these to
// HTTP responses; raw storage errors never cross the service boundary.
var (
	// ErrInvalidInput covers malformed geometry and missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutstandingDebt rejects new requests from passengers with a prior
	// failed wallet debit.
	ErrOutstandingDebt = errors.New("outstanding debt on previous ride")

	// ErrInsufficientBalance rejects wallet rides the passenger cannot cover.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	ErrNotFound = errors.New("not found")

	// ErrRideUnavailable signals a lost conditional-update race on an open
	// ride (another driver got there first, or the ride moved on).
	ErrRideUnavailable = errors.New("ride no longer available")

	// ErrForbidden signals a conditional update that matched no row for this
	// actor (wrong driver/passenger or wrong prior state).
	ErrForbidden = errors.New("operation not permitted for this ride")

	ErrTooFarFromPickup = errors.New("too far from pickup location")

	// ErrUpstreamUnavailable marks a collaborator or store that is
	// unreachable or returned garbage. Transient, retryable.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	ErrInternal = errors.New("internal error")
)
