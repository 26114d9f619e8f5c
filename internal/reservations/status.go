package reservations

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

type ArrivalStatus string

const (
	ArrivalPending   ArrivalStatus = "pending"
	ArrivalCheckedIn ArrivalStatus = "checked_in"
	ArrivalNoShow    ArrivalStatus = "no_show"
)

// Admin decisions only. Move-to-requests and cancel bypass this table:
// both are legal from any state for their respective actor.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusAccepted: true, StatusRejected: true},
	StatusAccepted:  {},
	StatusRejected:  {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (a ArrivalStatus) Valid() bool {
	switch a {
	case ArrivalPending, ArrivalCheckedIn, ArrivalNoShow:
		return true
	}
	return false
}

// CanUpdateArrival reports whether arrival tracking may move a reservation
// to a. Only accepted reservations still awaiting their guest qualify.
func CanUpdateArrival(r Reservation, a ArrivalStatus) bool {
	if a != ArrivalCheckedIn && a != ArrivalNoShow {
		return false
	}
	return r.Status == StatusAccepted && r.ArrivalStatus == ArrivalPending
}
