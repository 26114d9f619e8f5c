package slots

import (
	"fmt"
	"time"
)

// Hours is a venue's daily operating window. When Close is not after Open
// the window ends on the following calendar day (e.g. 18:00-02:00).
type Hours struct {
	Open  TimeOfDay `json:"open" yaml:"open"`
	Close TimeOfDay `json:"close" yaml:"close"`
}

func (h Hours) Validate() error {
	if !h.Open.Valid() || !h.Close.Valid() {
		return fmt.Errorf("operating hours out of range: %s-%s", h.Open, h.Close)
	}
	if h.Open == h.Close {
		return fmt.Errorf("operating hours must not be empty or span a full day: %s-%s", h.Open, h.Close)
	}
	return nil
}

func (h Hours) CrossesMidnight() bool {
	return h.Close <= h.Open
}

// Window returns the absolute opening and closing instants of the window
// that opens on the given business date.
func (h Hours) Window(date time.Time) (start, end time.Time) {
	day := DateOf(date)
	start = day.Add(h.Open.Duration())
	end = day.Add(h.Close.Duration())
	if h.CrossesMidnight() {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// Instant places a wall-clock time on the timeline of the window opening on
// date. For windows crossing midnight, times earlier than Open belong to the
// after-midnight tail and land on the next calendar day.
func (h Hours) Instant(date time.Time, t TimeOfDay) time.Time {
	day := DateOf(date)
	if h.CrossesMidnight() && t < h.Open {
		day = day.AddDate(0, 0, 1)
	}
	return day.Add(t.Duration())
}

func (h Hours) String() string {
	return h.Open.String() + "-" + h.Close.String()
}
