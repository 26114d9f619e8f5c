// Package notify decides who hears about a reservation change and through
// which channel. Nothing in here performs I/O.
package notify

import (
	"github.com/ariefcatur/go-realtime-reservations/internal/changes"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
)

type Kind string

const (
	KindCreated   Kind = "created"
	KindUpdated   Kind = "updated"
	KindEdited    Kind = "edited"
	KindCancelled Kind = "cancelled"
)

// EventType maps a kind onto the event stream's event type.
func (k Kind) EventType() string {
	switch k {
	case KindCreated:
		return reservations.EventReservationCreated
	case KindEdited:
		return reservations.EventReservationEdited
	case KindCancelled:
		return reservations.EventReservationCancelled
	default:
		return reservations.EventReservationUpdated
	}
}

type Actor string

const (
	ActorCustomer   Actor = "customer"
	ActorVenueAdmin Actor = "venue_admin"
	ActorUnknown    Actor = "unknown"
)

// ResolveActor compares the principal that performed a mutation with the
// reservation's customer and the venue's owner.
func ResolveActor(p reservations.Principal, r reservations.Reservation, v reservations.Venue) Actor {
	switch {
	case r.BelongsTo(p):
		return ActorCustomer
	case v.OwnedBy(p):
		return ActorVenueAdmin
	default:
		return ActorUnknown
	}
}

// Event is a committed reservation change on its way to the router.
type Event struct {
	ID          string
	Kind        Kind
	Diff        changes.Diff
	Actor       Actor
	Reservation reservations.Reservation
	Venue       reservations.Venue
}

// Suppressed reports whether the event must not produce any notification.
// Creation always notifies; every other kind needs a diff and a known actor.
func (e Event) Suppressed() bool {
	if e.Kind == KindCreated {
		return false
	}
	return e.Diff.Empty() || e.Actor == ActorUnknown
}

// Anomalous is a change that went through but whose author is neither party.
func (e Event) Anomalous() bool {
	return e.Kind != KindCreated && !e.Diff.Empty() && e.Actor == ActorUnknown
}
