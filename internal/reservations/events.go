package reservations

import (
	"encoding/json"
	"time"
)

const (
	EventReservationCreated   = "ReservationCreated"
	EventReservationUpdated   = "ReservationUpdated"
	EventReservationEdited    = "ReservationEdited"
	EventReservationCancelled = "ReservationCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // reservation id
	Payload       json.RawMessage `json:"payload"`
}

type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ChangedPayload is the payload of every reservation event on the stream.
type ChangedPayload struct {
	ReservationID string        `json:"reservation_id"`
	VenueID       string        `json:"venue_id"`
	Actor         string        `json:"actor"`
	Status        Status        `json:"status"`
	ArrivalStatus ArrivalStatus `json:"arrival_status"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Guests        int           `json:"guests"`
	Changes       []FieldChange `json:"changes,omitempty"`
}
