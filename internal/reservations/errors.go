package reservations

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("reservation not found")
	ErrVenueNotFound   = errors.New("venue not found")
	ErrVersionConflict = errors.New("reservation was modified concurrently")
	ErrDuplicate       = errors.New("duplicate booking")
)

// ValidationError is a caller mistake: malformed field, unavailable slot or
// duplicate booking.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid reservation: " + e.Reason
	}
	return fmt.Sprintf("invalid reservation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PermissionError means the actor is neither the reservation's customer nor
// the venue owner (or not the one the operation requires).
type PermissionError struct {
	Op            string
	ActorID       string
	ReservationID string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: actor %q may not modify reservation %s", e.Op, e.ActorID, e.ReservationID)
}

// IllegalTransitionError is returned when the current state does not allow
// the requested change, typically because a concurrent request got there first.
type IllegalTransitionError struct {
	Op   string
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move reservation from %s to %s", e.Op, e.From, e.To)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsPermission(err error) bool {
	var p *PermissionError
	return errors.As(err, &p)
}

func IsIllegalTransition(err error) bool {
	var it *IllegalTransitionError
	return errors.As(err, &it)
}
