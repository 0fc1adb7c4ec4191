package myerrors

import "errors"

var (
	ErrTripNotFound  = errors.New("trip not found")
	ErrStopNotFound  = errors.New("stop not found")
	ErrRouteNotFound = errors.New("route not found")

	// The acting mapper is not the trip's owner. Capability check, not a role check.
	ErrNotTripOwner = errors.New("trip belongs to another mapper")

	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("illegal trip state transition")
	ErrInvalidOperation       = errors.New("operation not possible for this trip")
	ErrPersistence            = errors.New("persistence failure")
)
