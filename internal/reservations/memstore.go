package reservations

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/google/uuid"
)

// MemStore is an in-process Store. One mutex guards every row, which gives
// Create and Update the same serialisation a row lock gives in postgres.
type MemStore struct {
	mu     sync.Mutex
	rows   map[string]Reservation
	venues func(id string) bool
	now    func() time.Time
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty store. venueExists may be nil, in which case
// every venue id is accepted.
func NewMemStore(venueExists func(id string) bool) *MemStore {
	return &MemStore{
		rows:   make(map[string]Reservation),
		venues: venueExists,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemStore) Get(_ context.Context, id string) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return clone(r), nil
}

func (s *MemStore) ListByVenueDate(_ context.Context, venueID string, date time.Time) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booked(venueID, date, ""), nil
}

func (s *MemStore) Create(_ context.Context, r Reservation, check func(booked []Reservation) error) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.venues != nil && !s.venues(r.VenueID) {
		return Reservation{}, ErrVenueNotFound
	}
	if err := check(s.booked(r.VenueID, r.Date, "")); err != nil {
		return Reservation{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, exists := s.rows[r.ID]; exists {
		return Reservation{}, &ValidationError{Field: "id", Reason: "already exists", Err: ErrDuplicate}
	}
	now := s.now()
	r.Date = slots.DateOf(r.Date)
	r.Version = 1
	r.CreatedAt, r.UpdatedAt = now, now
	s.rows[r.ID] = clone(r)
	return clone(r), nil
}

func (s *MemStore) Update(ctx context.Context, id string, mutate func(tx Tx, r *Reservation) error) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	next := clone(current)
	if err := mutate(memTx{s}, &next); err != nil {
		if errors.Is(err, ErrNoop) {
			return clone(current), nil
		}
		return Reservation{}, err
	}
	next.ID = current.ID
	next.VenueID = current.VenueID
	next.CustomerID = current.CustomerID
	next.CreatedAt = current.CreatedAt
	next.Date = slots.DateOf(next.Date)
	next.Version = current.Version + 1
	next.UpdatedAt = s.now()
	s.rows[id] = clone(next)
	return clone(next), nil
}

// booked must be called with s.mu held.
func (s *MemStore) booked(venueID string, date time.Time, exclude string) []Reservation {
	day := slots.DateOf(date)
	var out []Reservation
	for _, r := range s.rows {
		if r.VenueID != venueID || !r.Date.Equal(day) || !r.Active() || r.ID == exclude {
			continue
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// memTx runs inside Update, which already holds the store mutex.
type memTx struct{ s *MemStore }

func (t memTx) Booked(_ context.Context, venueID string, date time.Time, exclude string) ([]Reservation, error) {
	if t.s.venues != nil && !t.s.venues(venueID) {
		return nil, ErrVenueNotFound
	}
	return t.s.booked(venueID, date, exclude), nil
}

func clone(r Reservation) Reservation {
	if r.CustomerID != nil {
		id := *r.CustomerID
		r.CustomerID = &id
	}
	if r.TableID != nil {
		id := *r.TableID
		r.TableID = &id
	}
	return r
}
