package lifecycle

import (
	"encoding/json"

	"github.com/ariefcatur/go-realtime-reservations/internal/changes"
	"github.com/ariefcatur/go-realtime-reservations/internal/email"
	"github.com/ariefcatur/go-realtime-reservations/internal/notify"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"go.uber.org/zap"
)

func (c *Controller) emitChange(kind notify.Kind, p reservations.Principal, r reservations.Reservation, v reservations.Venue, diff changes.Diff) {
	if diff.Empty() {
		c.log.Debug("no tracked change, nothing to notify",
			zap.String("reservation_id", r.ID), zap.String("kind", string(kind)))
		return
	}
	c.emit(notify.Event{
		ID:          newEventID(),
		Kind:        kind,
		Diff:        diff,
		Actor:       notify.ResolveActor(p, r, v),
		Reservation: r,
		Venue:       v,
	})
}

// emit runs after commit. Every step only enqueues; failures are logged and
// never reach the caller.
func (c *Controller) emit(ev notify.Event) {
	log := c.log.With(
		zap.String("event_id", ev.ID),
		zap.String("reservation_id", ev.Reservation.ID),
		zap.String("venue_id", ev.Venue.ID),
		zap.String("kind", string(ev.Kind)),
		zap.String("actor", string(ev.Actor)))

	c.publish(ev, log)

	if ev.Anomalous() {
		log.Warn("notification suppressed: actor is neither customer nor venue owner",
			zap.Strings("changes", ev.Diff.Lines()))
		return
	}

	for _, n := range c.router.Route(ev) {
		switch n.Channel {
		case notify.ChannelRealtime:
			if c.fanout != nil && n.Payload != nil {
				c.fanout.Enqueue(n.Recipient.VenueID, *n.Payload)
			}
		case notify.ChannelEmail:
			if c.mail == nil {
				continue
			}
			c.mail.Dispatch(email.Request{
				ID:         n.ID,
				To:         n.Recipient.Email,
				Subject:    n.Subject,
				TemplateID: n.TemplateID,
				Context:    n.Context,
			})
		}
	}
}

func (c *Controller) publish(ev notify.Event, log *zap.Logger) {
	if c.events == nil {
		return
	}
	r := ev.Reservation
	payload, err := json.Marshal(reservations.ChangedPayload{
		ReservationID: r.ID,
		VenueID:       r.VenueID,
		Actor:         string(ev.Actor),
		Status:        r.Status,
		ArrivalStatus: r.ArrivalStatus,
		Date:          r.DateString(),
		Time:          r.Time.String(),
		Guests:        r.Guests,
		Changes:       ev.Diff.Wire(),
	})
	if err != nil {
		log.Error("encode event payload", zap.Error(err))
		return
	}
	env := reservations.Envelope{
		EventID:       ev.ID,
		EventType:     ev.Kind.EventType(),
		EventVersion:  1,
		OccurredAt:    c.now(),
		Producer:      c.producer,
		CorrelationID: r.ID,
		Payload:       payload,
	}
	if err := c.events.PublishJSON(reservations.PartitionKey(r.ID), env); err != nil {
		log.Warn("event stream publish failed", zap.Error(err))
	}
}
