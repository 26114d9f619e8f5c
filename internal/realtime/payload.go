package realtime

import (
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
)

const (
	EventCreated   = "reservation.created"
	EventUpdated   = "reservation.updated"
	EventEdited    = "reservation.edited"
	EventCancelled = "reservation.cancelled"
)

// Actions are the dashboard's one-click endpoints for a reservation.
type Actions struct {
	Accept  string `json:"accept"`
	Reject  string `json:"reject"`
	Move    string `json:"move"`
	CheckIn string `json:"checkin"`
	NoShow  string `json:"no_show"`
}

func ActionsFor(reservationID string) Actions {
	base := "/reservations/" + reservationID
	return Actions{
		Accept:  base + "/status/" + string(reservations.StatusAccepted),
		Reject:  base + "/status/" + string(reservations.StatusRejected),
		Move:    base + "/move-to-requests",
		CheckIn: base + "/arrival/" + string(reservations.ArrivalCheckedIn),
		NoShow:  base + "/arrival/" + string(reservations.ArrivalNoShow),
	}
}

// View is the reservation shape the dashboard renders. Field names are a
// contract with the frontend and must not change.
type View struct {
	ID            string                     `json:"id"`
	CustomerName  string                     `json:"customer_name"`
	Date          string                     `json:"date"`
	Time          string                     `json:"time"`
	Guests        int                        `json:"guests"`
	Status        reservations.Status        `json:"status"`
	ArrivalStatus reservations.ArrivalStatus `json:"arrival_status"`
	URLs          Actions                    `json:"urls"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

func ViewOf(r reservations.Reservation) View {
	return View{
		ID:            r.ID,
		CustomerName:  r.Name,
		Date:          r.DateString(),
		Time:          r.Time.String(),
		Guests:        r.Guests,
		Status:        r.Status,
		ArrivalStatus: r.ArrivalStatus,
		URLs:          ActionsFor(r.ID),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type Payload struct {
	Event       string `json:"event"`
	Reservation View   `json:"reservation"`
}

// Batch is everything queued for one venue during a flush interval, in
// enqueue order. It goes over the wire as a JSON array of payloads.
type Batch struct {
	VenueID  string
	Payloads []Payload
}
