package lifecycle

import (
	"context"

	"github.com/ariefcatur/go-realtime-reservations/internal/notify"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
)

// Create books a new pending reservation. A principal other than the venue
// owner becomes the reservation's customer; owner entries are anonymous.
func (c *Controller) Create(ctx context.Context, p reservations.Principal, d reservations.Draft) (reservations.Reservation, error) {
	if err := d.Validate(); err != nil {
		return reservations.Reservation{}, err
	}
	v, err := c.venues.Get(ctx, d.VenueID)
	if err != nil {
		return reservations.Reservation{}, err
	}

	r := reservations.Reservation{
		VenueID:        v.ID,
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Date:           slots.DateOf(d.Date),
		Time:           d.Time,
		Guests:         d.Guests,
		Status:         reservations.StatusPending,
		ArrivalStatus:  reservations.ArrivalPending,
		Comments:       d.Comments,
		Allergies:      d.Allergies,
		SpecialRequest: d.SpecialRequest,
	}
	if !p.Anonymous() && !v.OwnedBy(p) {
		id := p.ID
		r.CustomerID = &id
	}

	created, err := c.store.Create(ctx, r, func(booked []reservations.Reservation) error {
		return c.slotCheck(r, v, booked)
	})
	if err != nil {
		return reservations.Reservation{}, err
	}

	c.emit(notify.Event{
		ID:          newEventID(),
		Kind:        notify.KindCreated,
		Actor:       notify.ResolveActor(p, created, v),
		Reservation: created,
		Venue:       v,
	})
	return created, nil
}

// Transition accepts or rejects a pending reservation. Two admins racing on
// the same reservation are serialised by the row lock; the second one finds
// it no longer pending and gets an IllegalTransitionError.
func (c *Controller) Transition(ctx context.Context, p reservations.Principal, id string, to reservations.Status) (reservations.Reservation, error) {
	if to != reservations.StatusAccepted && to != reservations.StatusRejected {
		return reservations.Reservation{}, &reservations.ValidationError{Field: "status", Reason: "must be accepted or rejected"}
	}
	_, v, err := c.load(ctx, id)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if err := c.requireOwner("transition", p, v, id); err != nil {
		return reservations.Reservation{}, err
	}

	saved, diff, err := c.detector.Update(ctx, id, func(_ reservations.Tx, r *reservations.Reservation) error {
		if !reservations.CanTransition(r.Status, to) {
			return &reservations.IllegalTransitionError{Op: "transition", From: string(r.Status), To: string(to)}
		}
		r.SetStatus(to)
		return nil
	})
	if err != nil {
		return reservations.Reservation{}, c.reject(err, id)
	}
	c.emitChange(notify.KindUpdated, p, saved, v, diff)
	return saved, nil
}

// UpdateArrival records whether the guest of an accepted reservation showed up.
func (c *Controller) UpdateArrival(ctx context.Context, p reservations.Principal, id string, a reservations.ArrivalStatus) (reservations.Reservation, error) {
	if a != reservations.ArrivalCheckedIn && a != reservations.ArrivalNoShow {
		return reservations.Reservation{}, &reservations.ValidationError{Field: "arrival_status", Reason: "must be checked_in or no_show"}
	}
	_, v, err := c.load(ctx, id)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if err := c.requireOwner("update_arrival", p, v, id); err != nil {
		return reservations.Reservation{}, err
	}

	saved, diff, err := c.detector.Update(ctx, id, func(_ reservations.Tx, r *reservations.Reservation) error {
		if !reservations.CanUpdateArrival(*r, a) {
			return &reservations.IllegalTransitionError{
				Op:   "update_arrival",
				From: string(r.Status) + "/" + string(r.ArrivalStatus),
				To:   string(a),
			}
		}
		r.ArrivalStatus = a
		return nil
	})
	if err != nil {
		return reservations.Reservation{}, c.reject(err, id)
	}
	c.emitChange(notify.KindUpdated, p, saved, v, diff)
	return saved, nil
}

// MoveToRequests puts a reservation back into the pending queue from any
// state. moved is false when it was already pending with no arrival recorded.
// A cancelled reservation takes its slot back only if the slot is still free.
func (c *Controller) MoveToRequests(ctx context.Context, p reservations.Principal, id string) (reservations.Reservation, bool, error) {
	_, v, err := c.load(ctx, id)
	if err != nil {
		return reservations.Reservation{}, false, err
	}
	if err := c.requireOwner("move_to_requests", p, v, id); err != nil {
		return reservations.Reservation{}, false, err
	}

	saved, diff, err := c.detector.Update(ctx, id, func(tx reservations.Tx, r *reservations.Reservation) error {
		if r.Status == reservations.StatusPending && r.ArrivalStatus == reservations.ArrivalPending {
			return reservations.ErrNoop
		}
		if !r.Active() {
			booked, err := tx.Booked(ctx, r.VenueID, r.Date, r.ID)
			if err != nil {
				return err
			}
			if err := c.slotCheck(*r, v, booked); err != nil {
				return err
			}
		}
		r.SetStatus(reservations.StatusPending)
		return nil
	})
	if err != nil {
		return reservations.Reservation{}, false, c.reject(err, id)
	}
	c.emitChange(notify.KindUpdated, p, saved, v, diff)
	return saved, !diff.Empty(), nil
}

// Edit lets the customer change a non-cancelled reservation. A new date or
// time is re-validated against the venue's slots. Any edit sends the
// reservation back for approval.
func (c *Controller) Edit(ctx context.Context, p reservations.Principal, id string, e reservations.Edit) (reservations.Reservation, error) {
	current, v, err := c.load(ctx, id)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if err := c.requireCustomer("edit", p, current); err != nil {
		return reservations.Reservation{}, err
	}

	saved, diff, err := c.detector.Update(ctx, id, func(tx reservations.Tx, r *reservations.Reservation) error {
		if r.Status == reservations.StatusCancelled {
			return &reservations.IllegalTransitionError{Op: "edit", From: string(r.Status), To: string(reservations.StatusPending)}
		}
		if err := e.Apply(r); err != nil {
			return err
		}
		if e.Reschedules() {
			booked, err := tx.Booked(ctx, r.VenueID, r.Date, r.ID)
			if err != nil {
				return err
			}
			if err := c.slotCheck(*r, v, booked); err != nil {
				return err
			}
		}
		r.SetStatus(reservations.StatusPending)
		return nil
	})
	if err != nil {
		return reservations.Reservation{}, c.reject(err, id)
	}
	c.emitChange(notify.KindEdited, p, saved, v, diff)
	return saved, nil
}

// Cancel is the customer's way out. Cancelling twice is a no-op.
func (c *Controller) Cancel(ctx context.Context, p reservations.Principal, id string) (reservations.Reservation, error) {
	current, v, err := c.load(ctx, id)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if err := c.requireCustomer("cancel", p, current); err != nil {
		return reservations.Reservation{}, err
	}

	saved, diff, err := c.detector.Update(ctx, id, func(_ reservations.Tx, r *reservations.Reservation) error {
		if r.Status == reservations.StatusCancelled {
			return reservations.ErrNoop
		}
		r.SetStatus(reservations.StatusCancelled)
		return nil
	})
	if err != nil {
		return reservations.Reservation{}, err
	}
	c.emitChange(notify.KindCancelled, p, saved, v, diff)
	return saved, nil
}

// AssignTable sets or clears (empty tableID) the table. The table is not a
// tracked field, so no notification follows.
func (c *Controller) AssignTable(ctx context.Context, p reservations.Principal, id, tableID string) (reservations.Reservation, error) {
	_, v, err := c.load(ctx, id)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if err := c.requireOwner("assign_table", p, v, id); err != nil {
		return reservations.Reservation{}, err
	}

	saved, diff, err := c.detector.Update(ctx, id, func(_ reservations.Tx, r *reservations.Reservation) error {
		if tableID == "" {
			r.TableID = nil
			return nil
		}
		r.TableID = &tableID
		return nil
	})
	if err != nil {
		return reservations.Reservation{}, err
	}
	c.emitChange(notify.KindUpdated, p, saved, v, diff)
	return saved, nil
}
