// Package lifecycle validates and commits reservation mutations, then hands
// every committed change to the notification pipeline without waiting on it.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/changes"
	"github.com/ariefcatur/go-realtime-reservations/internal/email"
	"github.com/ariefcatur/go-realtime-reservations/internal/notify"
	"github.com/ariefcatur/go-realtime-reservations/internal/realtime"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/ariefcatur/go-realtime-reservations/internal/venues"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Enqueuer is the realtime fan-out as seen by the controller.
type Enqueuer interface {
	Enqueue(venueID string, p realtime.Payload)
}

// Mailer queues an email and never blocks.
type Mailer interface {
	Dispatch(req email.Request) bool
}

// Publisher writes to the reservation event stream. Publishing is best-effort.
type Publisher interface {
	PublishJSON(key []byte, v any) error
}

type Deps struct {
	Store       reservations.Store
	Venues      venues.Directory
	Calculator  slots.Calculator
	Router      notify.Router
	Fanout      Enqueuer
	Mailer      Mailer
	Events      Publisher // optional
	ServiceName string
	Logger      *zap.Logger
}

type Controller struct {
	store    reservations.Store
	detector changes.Detector
	venues   venues.Directory
	calc     slots.Calculator
	router   notify.Router
	fanout   Enqueuer
	mail     Mailer
	events   Publisher
	producer string
	log      *zap.Logger
	now      func() time.Time
}

func New(d Deps) *Controller {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	calc := d.Calculator
	if calc.Granularity <= 0 || calc.Duration <= 0 {
		calc = slots.New(calc.Granularity, calc.Duration)
	}
	producer := d.ServiceName
	if producer == "" {
		producer = "reservation-api"
	}
	return &Controller{
		store:    d.Store,
		detector: changes.Detector{Store: d.Store},
		venues:   d.Venues,
		calc:     calc,
		router:   d.Router,
		fanout:   d.Fanout,
		mail:     d.Mailer,
		events:   d.Events,
		producer: producer,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a reservation to its customer or to the venue owner.
func (c *Controller) Get(ctx context.Context, p reservations.Principal, id string) (reservations.Reservation, error) {
	r, v, err := c.load(ctx, id)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if !r.BelongsTo(p) && !v.OwnedBy(p) {
		return reservations.Reservation{}, c.denied("get", p, id)
	}
	return r, nil
}

// AvailableSlots lists the start times still open at a venue on a business date.
func (c *Controller) AvailableSlots(ctx context.Context, venueID string, date time.Time) ([]slots.TimeOfDay, error) {
	v, err := c.venues.Get(ctx, venueID)
	if err != nil {
		return nil, err
	}
	booked, err := c.store.ListByVenueDate(ctx, venueID, date)
	if err != nil {
		return nil, err
	}
	var out []slots.TimeOfDay
	for t := range c.calc.Available(date, v.Hours, startsOf(booked, v.Hours), v.Capacity()) {
		out = append(out, slots.Of(t))
	}
	return out, nil
}

func (c *Controller) load(ctx context.Context, id string) (reservations.Reservation, reservations.Venue, error) {
	r, err := c.store.Get(ctx, id)
	if err != nil {
		return reservations.Reservation{}, reservations.Venue{}, err
	}
	v, err := c.venues.Get(ctx, r.VenueID)
	if err != nil {
		return reservations.Reservation{}, reservations.Venue{}, err
	}
	return r, v, nil
}

// requireOwner admits only the venue's owner acting as venue admin.
func (c *Controller) requireOwner(op string, p reservations.Principal, v reservations.Venue, id string) error {
	if p.Role == reservations.RoleVenueAdmin && v.OwnedBy(p) {
		return nil
	}
	return c.denied(op, p, id)
}

func (c *Controller) requireCustomer(op string, p reservations.Principal, r reservations.Reservation) error {
	if r.BelongsTo(p) {
		return nil
	}
	return c.denied(op, p, r.ID)
}

func (c *Controller) denied(op string, p reservations.Principal, id string) error {
	c.log.Warn("permission denied, possible IDOR",
		zap.String("op", op),
		zap.String("actor_id", p.ID),
		zap.String("role", string(p.Role)),
		zap.String("reservation_id", id))
	return &reservations.PermissionError{Op: op, ActorID: p.ID, ReservationID: id}
}

// reject logs a lost race or stale request; it is not an alarm.
func (c *Controller) reject(err error, id string) error {
	var it *reservations.IllegalTransitionError
	if errors.As(err, &it) {
		c.log.Info("illegal transition",
			zap.String("op", it.Op),
			zap.String("reservation_id", id),
			zap.String("from", it.From),
			zap.String("to", it.To))
	}
	return err
}

// slotCheck validates a start time against hours, capacity and the
// customer's own bookings. booked must exclude the reservation being checked.
func (c *Controller) slotCheck(r reservations.Reservation, v reservations.Venue, booked []reservations.Reservation) error {
	if r.CustomerID != nil {
		for _, b := range booked {
			if b.CustomerID != nil && *b.CustomerID == *r.CustomerID && b.Time == r.Time {
				return &reservations.ValidationError{
					Field:  "time",
					Reason: "is already booked by this customer at this venue",
					Err:    reservations.ErrDuplicate,
				}
			}
		}
	}
	if err := v.Hours.Validate(); err != nil {
		return &reservations.ValidationError{Field: "venue_id", Reason: "has no valid operating hours", Err: err}
	}
	if err := c.calc.Check(r.Date, r.Time, v.Hours, startsOf(booked, v.Hours), v.Capacity()); err != nil {
		return &reservations.ValidationError{Field: "time", Reason: err.Error(), Err: err}
	}
	return nil
}

func startsOf(rs []reservations.Reservation, h slots.Hours) []time.Time {
	out := make([]time.Time, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.StartsAt(h))
	}
	return out
}

func newEventID() string { return uuid.NewString() }
