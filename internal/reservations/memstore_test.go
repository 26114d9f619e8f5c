package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(venue string, at slots.TimeOfDay) Reservation {
	return Reservation{
		VenueID:       venue,
		Name:          "Ada",
		Email:         "ada@example.com",
		Date:          time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Time:          at,
		Guests:        2,
		Status:        StatusPending,
		ArrivalStatus: ArrivalPending,
	}
}

func allow([]Reservation) error { return nil }

func TestMemStoreCreateAndGet(t *testing.T) {
	s := NewMemStore(nil)
	ctx := context.Background()

	created, err := s.Create(ctx, sample("v1", slots.NewTimeOfDay(19, 0)), allow)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreUnknownVenue(t *testing.T) {
	s := NewMemStore(func(id string) bool { return id == "v1" })
	_, err := s.Create(context.Background(), sample("v2", slots.NewTimeOfDay(19, 0)), allow)
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestMemStoreCheckSeesBookedAndRejects(t *testing.T) {
	s := NewMemStore(nil)
	ctx := context.Background()
	_, err := s.Create(ctx, sample("v1", slots.NewTimeOfDay(19, 0)), allow)
	require.NoError(t, err)

	full := errors.New("full")
	_, err = s.Create(ctx, sample("v1", slots.NewTimeOfDay(19, 0)), func(booked []Reservation) error {
		if len(booked) > 0 {
			return full
		}
		return nil
	})
	assert.ErrorIs(t, err, full)

	list, err := s.ListByVenueDate(ctx, "v1", time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemStoreCreateSerialisesChecks(t *testing.T) {
	s := NewMemStore(nil)
	ctx := context.Background()
	onlyOne := func(booked []Reservation) error {
		if len(booked) > 0 {
			return &ValidationError{Field: "time", Reason: "taken"}
		}
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, sample("v1", slots.NewTimeOfDay(19, 0)), onlyOne)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else {
				losses++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 15, losses)
}

func TestMemStoreUpdate(t *testing.T) {
	s := NewMemStore(nil)
	ctx := context.Background()
	created, err := s.Create(ctx, sample("v1", slots.NewTimeOfDay(19, 0)), allow)
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, func(_ Tx, r *Reservation) error {
		r.SetStatus(StatusAccepted)
		r.VenueID = "somewhere-else"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, updated.Status)
	assert.Equal(t, "v1", updated.VenueID, "venue is immutable")
	assert.Equal(t, 2, updated.Version)

	same, err := s.Update(ctx, created.ID, func(Tx, *Reservation) error { return ErrNoop })
	require.NoError(t, err)
	assert.Equal(t, 2, same.Version)

	boom := errors.New("boom")
	_, err = s.Update(ctx, created.ID, func(_ Tx, r *Reservation) error {
		r.Guests = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ := s.Get(ctx, created.ID)
	assert.Equal(t, 2, got.Guests, "failed mutation is discarded")

	_, err = s.Update(ctx, "missing", func(Tx, *Reservation) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreBookedExcludesSelfAndCancelled(t *testing.T) {
	s := NewMemStore(nil)
	ctx := context.Background()
	a, err := s.Create(ctx, sample("v1", slots.NewTimeOfDay(19, 0)), allow)
	require.NoError(t, err)
	b, err := s.Create(ctx, sample("v1", slots.NewTimeOfDay(20, 0)), allow)
	require.NoError(t, err)
	_, err = s.Update(ctx, b.ID, func(_ Tx, r *Reservation) error {
		r.SetStatus(StatusCancelled)
		return nil
	})
	require.NoError(t, err)

	_, err = s.Update(ctx, a.ID, func(tx Tx, r *Reservation) error {
		booked, err := tx.Booked(ctx, r.VenueID, r.Date, r.ID)
		require.NoError(t, err)
		assert.Empty(t, booked)
		return ErrNoop
	})
	require.NoError(t, err)
}

func TestMemStoreReturnsCopies(t *testing.T) {
	s := NewMemStore(nil)
	ctx := context.Background()
	r := sample("v1", slots.NewTimeOfDay(19, 0))
	customer := "c1"
	r.CustomerID = &customer
	created, err := s.Create(ctx, r, allow)
	require.NoError(t, err)

	*created.CustomerID = "mutated"
	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", *got.CustomerID)
}
