// Package venues resolves venue ids to owner, hours and capacity.
package venues

import (
	"context"
	"sort"
	"sync"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
)

type Directory interface {
	Get(ctx context.Context, id string) (reservations.Venue, error)
}

// Static is an in-memory Directory.
type Static struct {
	mu     sync.RWMutex
	venues map[string]reservations.Venue
}

func NewStatic(vs ...reservations.Venue) *Static {
	s := &Static{}
	s.Replace(vs)
	return s
}

func (s *Static) Get(_ context.Context, id string) (reservations.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[id]
	if !ok {
		return reservations.Venue{}, reservations.ErrVenueNotFound
	}
	return v, nil
}

// Has reports whether id is known. MemStore uses it as its venue check.
func (s *Static) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.venues[id]
	return ok
}

func (s *Static) Replace(vs []reservations.Venue) {
	m := make(map[string]reservations.Venue, len(vs))
	for _, v := range vs {
		m[v.ID] = v
	}
	s.mu.Lock()
	s.venues = m
	s.mu.Unlock()
}

// All returns the venues ordered by id.
func (s *Static) All() []reservations.Venue {
	s.mu.RLock()
	out := make([]reservations.Venue, 0, len(s.venues))
	for _, v := range s.venues {
		out = append(out, v)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.venues)
}
