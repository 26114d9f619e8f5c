package reservations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, false},
		{StatusAccepted, StatusAccepted, false},
		{StatusAccepted, StatusRejected, false},
		{StatusRejected, StatusAccepted, false},
		{StatusCancelled, StatusAccepted, false},
		{Status("bogus"), StatusAccepted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanUpdateArrival(t *testing.T) {
	accepted := Reservation{Status: StatusAccepted, ArrivalStatus: ArrivalPending}
	assert.True(t, CanUpdateArrival(accepted, ArrivalCheckedIn))
	assert.True(t, CanUpdateArrival(accepted, ArrivalNoShow))
	assert.False(t, CanUpdateArrival(accepted, ArrivalPending))

	arrived := Reservation{Status: StatusAccepted, ArrivalStatus: ArrivalCheckedIn}
	assert.False(t, CanUpdateArrival(arrived, ArrivalNoShow))

	pending := Reservation{Status: StatusPending, ArrivalStatus: ArrivalPending}
	assert.False(t, CanUpdateArrival(pending, ArrivalCheckedIn))
}

func TestReservationInvariant(t *testing.T) {
	r := Reservation{Status: StatusAccepted, ArrivalStatus: ArrivalCheckedIn}
	assert.True(t, r.Consistent())

	r.SetStatus(StatusPending)
	assert.Equal(t, ArrivalPending, r.ArrivalStatus)
	assert.True(t, r.Consistent())

	bad := Reservation{Status: StatusRejected, ArrivalStatus: ArrivalNoShow}
	assert.False(t, bad.Consistent())
}
