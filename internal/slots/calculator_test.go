package slots

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func clock(s string) TimeOfDay {
	v, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return v
}

func labels(seq func(func(time.Time) bool)) []string {
	var out []string
	for ts := range seq {
		out = append(out, ts.Format("01-02 15:04"))
	}
	return out
}

func TestParseTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("19:30")
	require.NoError(t, err)
	assert.Equal(t, "19:30", v.String())

	v, err = ParseTimeOfDay("07:05:00")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(7, 5), v)

	for _, bad := range []string{"", "24:00", "12:60", "7", "12:00:30", "ab:cd"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestCandidatesSameDay(t *testing.T) {
	c := New(30*time.Minute, time.Hour)
	h := Hours{Open: clock("12:00"), Close: clock("15:00")}

	got := labels(c.Candidates(mustDate(t, "2025-11-07"), h))
	assert.Equal(t, []string{"11-07 12:00", "11-07 12:30", "11-07 13:00", "11-07 13:30"}, got)
}

func TestCandidatesAcrossMidnight(t *testing.T) {
	c := New(30*time.Minute, time.Hour)
	h := Hours{Open: clock("22:00"), Close: clock("01:30")}

	got := labels(c.Candidates(mustDate(t, "2025-11-07"), h))
	assert.Equal(t, []string{"11-07 22:00", "11-07 22:30", "11-07 23:00", "11-07 23:30", "11-08 00:00"}, got)
}

func TestCandidatesRestartable(t *testing.T) {
	c := New(0, 0)
	h := Hours{Open: clock("18:00"), Close: clock("21:00")}
	seq := c.Candidates(mustDate(t, "2025-11-07"), h)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestCandidatesInvalidHours(t *testing.T) {
	c := New(0, 0)
	h := Hours{Open: clock("10:00"), Close: clock("10:00")}
	assert.Empty(t, slices.Collect(c.Candidates(mustDate(t, "2025-11-07"), h)))
}

func TestOverlapsAcrossMidnight(t *testing.T) {
	c := New(30*time.Minute, time.Hour)
	h := Hours{Open: clock("20:00"), Close: clock("03:00")}
	day := mustDate(t, "2025-11-07")

	late := h.Instant(day, clock("23:30"))
	early := h.Instant(day, clock("00:15"))
	assert.True(t, c.Overlaps(late, early), "23:30 and 00:15 the same night must collide")

	noon := day.Add(12 * time.Hour)
	assert.False(t, c.Overlaps(noon, early))

	assert.False(t, c.Overlaps(late, late.Add(time.Hour)), "back-to-back reservations do not overlap")
}

func TestAvailableRemovesBookedTimes(t *testing.T) {
	c := New(30*time.Minute, time.Hour)
	h := Hours{Open: clock("18:00"), Close: clock("21:30")}
	day := mustDate(t, "2025-11-07")
	booked := []time.Time{h.Instant(day, clock("19:00"))}

	got := labels(c.Available(day, h, booked, 1))
	assert.Equal(t, []string{"11-07 18:00", "11-07 20:00"}, got)

	got = labels(c.Available(day, h, booked, 2))
	assert.Len(t, got, 5, "a second table keeps every candidate open")
}

func TestCheck(t *testing.T) {
	c := New(30*time.Minute, time.Hour)
	day := mustDate(t, "2025-11-07")
	late := Hours{Open: clock("06:00"), Close: clock("04:00")}

	tests := []struct {
		name   string
		hours  Hours
		at     string
		booked []string
		want   error
	}{
		{name: "evening slot", hours: late, at: "19:00"},
		{name: "after midnight tail", hours: late, at: "02:00"},
		{name: "too close to closing", hours: late, at: "03:00", want: ErrOutsideHours},
		{name: "before opening", hours: Hours{Open: clock("12:00"), Close: clock("23:00")}, at: "03:00", want: ErrOutsideHours},
		{name: "off grid", hours: late, at: "19:10", want: ErrOffGrid},
		{name: "taken", hours: late, at: "19:30", booked: []string{"19:00"}, want: ErrSlotTaken},
		{name: "adjacent is free", hours: late, at: "20:00", booked: []string{"19:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var booked []time.Time
			for _, b := range tt.booked {
				booked = append(booked, tt.hours.Instant(day, clock(b)))
			}
			err := c.Check(day, clock(tt.at), tt.hours, booked, 1)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
