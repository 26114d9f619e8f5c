package slots

import (
	"errors"
	"iter"
	"time"
)

const (
	DefaultGranularity = 30 * time.Minute
	DefaultDuration    = time.Hour
)

var (
	ErrOutsideHours = errors.New("outside operating hours")
	ErrOffGrid      = errors.New("time is not a bookable slot")
	ErrSlotTaken    = errors.New("time slot is already reserved")
)

// Calculator computes bookable start times. A start t is a candidate when it
// sits on the granularity grid from opening time and a reservation starting at
// t finishes strictly before closing time.
type Calculator struct {
	Granularity time.Duration
	Duration    time.Duration
}

func New(granularity, duration time.Duration) Calculator {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return Calculator{Granularity: granularity, Duration: duration}
}

// Candidates yields every candidate start for the window opening on date, in
// order. The sequence is finite and may be ranged over any number of times.
func (c Calculator) Candidates(date time.Time, h Hours) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if h.Validate() != nil {
			return
		}
		start, end := h.Window(date)
		for t := start; t.Add(c.Duration).Before(end); t = t.Add(c.Granularity) {
			if !yield(t) {
				return
			}
		}
	}
}

// Overlaps reports whether reservations starting at a and b intersect.
// Both must be absolute instants so windows crossing midnight compare correctly.
func (c Calculator) Overlaps(a, b time.Time) bool {
	return a.Before(b.Add(c.Duration)) && b.Before(a.Add(c.Duration))
}

// Available yields the candidates for date that still have room, given the
// start instants of every non-cancelled reservation already booked on that
// business date. capacity is the number of parallel reservations the venue
// can seat; values below one are treated as one.
func (c Calculator) Available(date time.Time, h Hours, booked []time.Time, capacity int) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for t := range c.Candidates(date, h) {
			if c.free(t, booked, capacity) && !yield(t) {
				return
			}
		}
	}
}

// Check validates a requested start against the window and existing bookings.
func (c Calculator) Check(date time.Time, t TimeOfDay, h Hours, booked []time.Time, capacity int) error {
	at := h.Instant(date, t)
	start, end := h.Window(date)
	if at.Before(start) || !at.Add(c.Duration).Before(end) {
		return ErrOutsideHours
	}
	if at.Sub(start)%c.Granularity != 0 {
		return ErrOffGrid
	}
	if !c.free(at, booked, capacity) {
		return ErrSlotTaken
	}
	return nil
}

func (c Calculator) free(t time.Time, booked []time.Time, capacity int) bool {
	if capacity < 1 {
		capacity = 1
	}
	n := 0
	for _, b := range booked {
		if c.Overlaps(t, b) {
			n++
			if n >= capacity {
				return false
			}
		}
	}
	return true
}
