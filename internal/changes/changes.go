// Package changes captures the notification-relevant fields of a reservation
// before a write and reports which of them the write changed.
package changes

import (
	"context"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
)

// Tracked fields, in diff order.
const (
	FieldDate          = "date"
	FieldTime          = "time"
	FieldGuests        = "guests"
	FieldStatus        = "status"
	FieldArrivalStatus = "arrival_status"
)

// Snapshot is the subset of a reservation that notifications care about.
type Snapshot struct {
	Date          string
	Time          string
	Guests        int
	Status        reservations.Status
	ArrivalStatus reservations.ArrivalStatus
}

func Capture(r reservations.Reservation) Snapshot {
	return Snapshot{
		Date:          r.DateString(),
		Time:          r.Time.String(),
		Guests:        r.Guests,
		Status:        r.Status,
		ArrivalStatus: r.ArrivalStatus,
	}
}

type Change struct {
	Field string
	Old   string
	New   string
}

// Label turns "arrival_status" into "Arrival Status".
func (c Change) Label() string {
	words := strings.Fields(strings.ReplaceAll(c.Field, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (c Change) String() string {
	return c.Label() + ": " + c.Old + " → " + c.New
}

type Diff []Change

// Compare lists the tracked fields whose values differ between before and
// after. Equal snapshots give an empty diff.
func Compare(before, after Snapshot) Diff {
	var d Diff
	add := func(field, o, n string) {
		if o != n {
			d = append(d, Change{Field: field, Old: o, New: n})
		}
	}
	add(FieldDate, before.Date, after.Date)
	add(FieldTime, before.Time, after.Time)
	add(FieldGuests, strconv.Itoa(before.Guests), strconv.Itoa(after.Guests))
	add(FieldStatus, string(before.Status), string(after.Status))
	add(FieldArrivalStatus, string(before.ArrivalStatus), string(after.ArrivalStatus))
	return d
}

func (d Diff) Empty() bool { return len(d) == 0 }

func (d Diff) Has(field string) bool {
	for _, c := range d {
		if c.Field == field {
			return true
		}
	}
	return false
}

// Lines renders the diff as human readable lines, e.g. "Status: pending → accepted".
func (d Diff) Lines() []string {
	out := make([]string, 0, len(d))
	for _, c := range d {
		out = append(out, c.String())
	}
	return out
}

func (d Diff) Wire() []reservations.FieldChange {
	if len(d) == 0 {
		return nil
	}
	out := make([]reservations.FieldChange, 0, len(d))
	for _, c := range d {
		out = append(out, reservations.FieldChange{Field: c.Field, Old: c.Old, New: c.New})
	}
	return out
}

// Detector wraps Store.Update with a before/after comparison. The before
// snapshot is taken under the store's row lock, so it reflects the state the
// write actually replaced.
type Detector struct {
	Store reservations.Store
}

func (d Detector) Update(ctx context.Context, id string, mutate func(tx reservations.Tx, r *reservations.Reservation) error) (reservations.Reservation, Diff, error) {
	var (
		before  Snapshot
		written bool
	)
	saved, err := d.Store.Update(ctx, id, func(tx reservations.Tx, r *reservations.Reservation) error {
		before = Capture(*r)
		if err := mutate(tx, r); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return reservations.Reservation{}, nil, err
	}
	if !written {
		return saved, nil, nil
	}
	return saved, Compare(before, Capture(saved)), nil
}
