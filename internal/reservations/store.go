package reservations

import (
	"context"
	"errors"
	"time"
)

// ErrNoop tells Store.Update that the mutation left nothing to write.
var ErrNoop = errors.New("no change")

// Tx exposes reads that must observe the same locks as the surrounding write.
type Tx interface {
	// Booked returns the venue's non-cancelled reservations on a business
	// date, excluding the reservation with id exclude. The venue stays locked
	// until the write commits.
	Booked(ctx context.Context, venueID string, date time.Time, exclude string) ([]Reservation, error)
}

// Store persists reservations. Create and Update are atomic: the callbacks run
// while the affected venue (Create) or row (Update) is locked, so concurrent
// writers are serialised and each callback sees committed state.
type Store interface {
	Get(ctx context.Context, id string) (Reservation, error)
	ListByVenueDate(ctx context.Context, venueID string, date time.Time) ([]Reservation, error)
	Create(ctx context.Context, r Reservation, check func(booked []Reservation) error) (Reservation, error)
	Update(ctx context.Context, id string, mutate func(tx Tx, r *Reservation) error) (Reservation, error)
}
