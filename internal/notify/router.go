package notify

import (
	"fmt"

	"github.com/ariefcatur/go-realtime-reservations/internal/realtime"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelRealtime Channel = "realtime"
)

const (
	TemplateCreated      = "reservation_created"
	TemplateConfirmation = "reservation_user_confirmation"
	TemplateCancelled    = "reservation_cancelled"
	TemplateUpdate       = "reservation_update"
)

type Audience string

const (
	AudienceOwner    Audience = "venue_owner"
	AudienceCustomer Audience = "customer"
)

type Recipient struct {
	Audience Audience
	Email    string // email channel
	VenueID  string // realtime channel
}

// Notification is one message for one recipient on one channel.
type Notification struct {
	ID         string
	Channel    Channel
	Recipient  Recipient
	TemplateID string
	Subject    string
	Context    map[string]any
	Changes    []string
	Payload    *realtime.Payload
}

// Router turns events into notifications.
//
//	created                       -> owner + customer (email), dashboard
//	cancelled by customer         -> owner (email), dashboard
//	updated/edited by customer    -> owner (email), dashboard
//	updated/edited by venue admin -> customer (email), dashboard
//	unknown actor or empty diff   -> nothing
type Router struct {
	Links Links
}

func (rt Router) Route(ev Event) []Notification {
	if ev.Suppressed() {
		return nil
	}

	r, v := ev.Reservation, ev.Venue
	changes := ev.Diff.Lines()
	var out []Notification

	email := func(aud Audience, to, tmpl, subject string, ctx map[string]any) {
		if to == "" {
			return
		}
		ctx["venue"] = v.Name
		ctx["reservation"] = reservationContext(r)
		if len(changes) > 0 {
			ctx["changes"] = changes
		}
		out = append(out, Notification{
			ID:         fmt.Sprintf("%s:%s:%s", ev.ID, aud, tmpl),
			Channel:    ChannelEmail,
			Recipient:  Recipient{Audience: aud, Email: to},
			TemplateID: tmpl,
			Subject:    subject,
			Context:    ctx,
			Changes:    changes,
		})
	}

	switch {
	case ev.Kind == KindCreated:
		email(AudienceOwner, v.OwnerEmail, TemplateCreated,
			"Reservation Request at "+v.Name, map[string]any{
				"title":           "New Reservation Request",
				"intro":           fmt.Sprintf("A new reservation has been made by %s (%s).", r.Name, r.Email),
				"reservation_url": rt.Links.Dashboard(v.ID),
			})
		email(AudienceCustomer, r.Email, TemplateConfirmation,
			"Your Reservation Request at "+v.Name, map[string]any{
				"title":           "Reservation Request Received",
				"intro":           fmt.Sprintf("Hi %s, your reservation request at %s has been sent successfully!", r.Name, v.Name),
				"reservation_url": rt.Links.MyReservations(),
			})

	case ev.Actor == ActorCustomer && ev.Kind == KindCancelled:
		email(AudienceOwner, v.OwnerEmail, TemplateCancelled,
			"Reservation Cancelled at "+v.Name, map[string]any{
				"title":           "Reservation Cancelled",
				"intro":           fmt.Sprintf("The reservation from %s (%s) has been cancelled.", r.Name, r.Email),
				"reservation_url": rt.Links.Dashboard(v.ID),
			})

	case ev.Actor == ActorCustomer:
		email(AudienceOwner, v.OwnerEmail, TemplateUpdate,
			"Reservation Update for "+v.Name, map[string]any{
				"title":           "A reservation has been updated",
				"intro":           fmt.Sprintf("The reservation from %s (%s) has been updated:", r.Name, r.Email),
				"reservation_url": rt.Links.Dashboard(v.ID),
			})

	case ev.Actor == ActorVenueAdmin:
		email(AudienceCustomer, r.Email, TemplateUpdate,
			fmt.Sprintf("Your Reservation at %s Has Been Updated", v.Name), map[string]any{
				"title":           "Your reservation has been updated",
				"intro":           fmt.Sprintf("Your reservation at %s has been updated.", v.Name),
				"reservation_url": rt.Links.MyReservations(),
			})
	}

	out = append(out, Notification{
		ID:        fmt.Sprintf("%s:dashboard", ev.ID),
		Channel:   ChannelRealtime,
		Recipient: Recipient{Audience: AudienceOwner, VenueID: v.ID},
		Changes:   changes,
		Payload: &realtime.Payload{
			Event:       realtimeEvent(ev.Kind),
			Reservation: realtime.ViewOf(r),
		},
	})
	return out
}

func realtimeEvent(k Kind) string {
	switch k {
	case KindCreated:
		return realtime.EventCreated
	case KindEdited:
		return realtime.EventEdited
	case KindCancelled:
		return realtime.EventCancelled
	default:
		return realtime.EventUpdated
	}
}

// reservationContext is what templates see as {{.reservation}}.
func reservationContext(r reservations.Reservation) map[string]any {
	return map[string]any{
		"id":              r.ID,
		"name":            r.Name,
		"email":           r.Email,
		"phone":           r.Phone,
		"date":            r.DateString(),
		"time":            r.Time.String(),
		"guests":          r.Guests,
		"status":          string(r.Status),
		"arrival_status":  string(r.ArrivalStatus),
		"comments":        r.Comments,
		"allergies":       r.Allergies,
		"special_request": r.SpecialRequest,
	}
}
