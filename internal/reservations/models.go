package reservations

import (
	"strings"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleVenueAdmin Role = "venue_admin"
)

// Principal is the authenticated identity performing a mutation. An empty
// ID means an anonymous visitor.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

func (p Principal) Anonymous() bool { return p.ID == "" }

type Venue struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	OwnerID    string      `json:"owner_id" yaml:"owner_id"`
	OwnerEmail string      `json:"owner_email" yaml:"owner_email"`
	Hours      slots.Hours `json:"hours" yaml:"hours"`
	Tables     int         `json:"tables" yaml:"tables"`
}

// OwnedBy reports whether p owns the venue. Anonymous principals never do.
func (v Venue) OwnedBy(p Principal) bool {
	return !p.Anonymous() && v.OwnerID != "" && v.OwnerID == p.ID
}

func (v Venue) Capacity() int {
	if v.Tables < 1 {
		return 1
	}
	return v.Tables
}

type Reservation struct {
	ID             string
	VenueID        string
	CustomerID     *string // nil for anonymous bookings
	Name           string
	Email          string
	Phone          string
	Date           time.Time // business date, UTC midnight
	Time           slots.TimeOfDay
	Guests         int
	Status         Status
	ArrivalStatus  ArrivalStatus
	Comments       string
	Allergies      string
	SpecialRequest string
	TableID        *string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetStatus changes the status and clears arrival tracking whenever the
// reservation leaves the accepted state.
func (r *Reservation) SetStatus(s Status) {
	r.Status = s
	if s != StatusAccepted {
		r.ArrivalStatus = ArrivalPending
	}
}

// Consistent reports whether arrival tracking is only set on accepted reservations.
func (r Reservation) Consistent() bool {
	return r.ArrivalStatus == ArrivalPending || r.Status == StatusAccepted
}

func (r Reservation) BelongsTo(p Principal) bool {
	return !p.Anonymous() && r.CustomerID != nil && *r.CustomerID == p.ID
}

func (r Reservation) Active() bool {
	return r.Status != StatusCancelled
}

// StartsAt places the reservation on the absolute timeline of its venue.
func (r Reservation) StartsAt(h slots.Hours) time.Time {
	return h.Instant(r.Date, r.Time)
}

func (r Reservation) DateString() string {
	return r.Date.Format(slots.DateLayout)
}

// Draft carries the caller-supplied fields of a new reservation.
type Draft struct {
	VenueID        string
	Name           string
	Email          string
	Phone          string
	Date           time.Time
	Time           slots.TimeOfDay
	Guests         int
	Comments       string
	Allergies      string
	SpecialRequest string
}

func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.VenueID) == "":
		return &ValidationError{Field: "venue_id", Reason: "is required"}
	case strings.TrimSpace(d.Name) == "":
		return &ValidationError{Field: "name", Reason: "is required"}
	case !strings.Contains(d.Email, "@"):
		return &ValidationError{Field: "email", Reason: "must be a valid address"}
	case d.Date.IsZero():
		return &ValidationError{Field: "date", Reason: "is required"}
	case !d.Time.Valid():
		return &ValidationError{Field: "time", Reason: "is out of range"}
	case d.Guests < 1:
		return &ValidationError{Field: "guests", Reason: "must be at least 1"}
	}
	return nil
}

// Edit lists the fields a customer may change. Nil pointers are left as is.
type Edit struct {
	Name           *string
	Email          *string
	Phone          *string
	Date           *time.Time
	Time           *slots.TimeOfDay
	Guests         *int
	Comments       *string
	Allergies      *string
	SpecialRequest *string
}

// Reschedules reports whether the edit touches the booked slot.
func (e Edit) Reschedules() bool {
	return e.Date != nil || e.Time != nil
}

// Apply writes the edit onto r and validates the result.
func (e Edit) Apply(r *Reservation) error {
	if e.Name != nil {
		r.Name = *e.Name
	}
	if e.Email != nil {
		r.Email = *e.Email
	}
	if e.Phone != nil {
		r.Phone = *e.Phone
	}
	if e.Date != nil {
		r.Date = slots.DateOf(*e.Date)
	}
	if e.Time != nil {
		r.Time = *e.Time
	}
	if e.Guests != nil {
		r.Guests = *e.Guests
	}
	if e.Comments != nil {
		r.Comments = *e.Comments
	}
	if e.Allergies != nil {
		r.Allergies = *e.Allergies
	}
	if e.SpecialRequest != nil {
		r.SpecialRequest = *e.SpecialRequest
	}
	return Draft{
		VenueID: r.VenueID,
		Name:    r.Name,
		Email:   r.Email,
		Date:    r.Date,
		Time:    r.Time,
		Guests:  r.Guests,
	}.Validate()
}
