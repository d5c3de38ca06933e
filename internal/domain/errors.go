package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a plan status change is not allowed.
var ErrInvalidTransition = errors.New("invalid plan status transition")

type ValidationReason string

const (
	ReasonInvalidRequest       ValidationReason = "invalid_request"
	ReasonDriverNotFound       ValidationReason = "driver_not_found"
	ReasonVehicleNotFound      ValidationReason = "vehicle_not_found"
	ReasonLoadNotFound         ValidationReason = "load_not_found"
	ReasonNoLoads              ValidationReason = "no_loads"
	ReasonNoStops              ValidationReason = "no_stops"
	ReasonStopWithoutGeography ValidationReason = "stop_without_geography"
)

// ValidationError rejects a planning request before any simulation state exists.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// NotFound reports whether the rejection is about an unknown identifier.
func (e *ValidationError) NotFound() bool {
	switch e.Reason {
	case ReasonDriverNotFound, ReasonVehicleNotFound, ReasonLoadNotFound:
		return true
	}
	return false
}

func NewValidationError(reason ValidationReason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
