package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ariefcatur/go-realtime-reservations/internal/postgres/pgtest"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoRejectsMalformedIDWithoutQuerying(t *testing.T) {
	r := &Repo{}
	_, err := r.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Update(context.Background(), "abc", func(Tx, *Reservation) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepoCreateGetUpdate(t *testing.T) {
	pool := pgtest.Pool(t)
	venue := pgtest.Venue(t, pool, "owner-1", "17:00", "23:00", 1)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	cust := "cust-1"
	in := sample(venue, slots.NewTimeOfDay(19, 0))
	in.CustomerID = &cust
	created, err := repo.Create(ctx, in, allow)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, slots.NewTimeOfDay(19, 0), created.Time)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, cust, *got.CustomerID)

	unchanged, err := repo.Update(ctx, created.ID, func(Tx, *Reservation) error { return ErrNoop })
	require.NoError(t, err)
	assert.Equal(t, 1, unchanged.Version)

	accepted, err := repo.Update(ctx, created.ID, func(_ Tx, r *Reservation) error {
		r.SetStatus(StatusAccepted)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	assert.Equal(t, 2, accepted.Version)

	_, err = repo.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepoCreateSerialisesChecksPerVenue(t *testing.T) {
	pool := pgtest.Pool(t)
	venue := pgtest.Venue(t, pool, "owner-1", "17:00", "23:00", 1)
	repo := &Repo{DB: pool}

	onePerVenue := func(booked []Reservation) error {
		if len(booked) > 0 {
			return &ValidationError{Field: "time", Reason: "taken", Err: ErrDuplicate}
		}
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(context.Background(), sample(venue, slots.NewTimeOfDay(19, 0)), onePerVenue)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			assert.ErrorIs(t, err, ErrDuplicate)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRepoUniqueIndexBacksDuplicateGuard(t *testing.T) {
	pool := pgtest.Pool(t)
	venue := pgtest.Venue(t, pool, "owner-1", "17:00", "23:00", 5)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	cust := "cust-1"
	in := sample(venue, slots.NewTimeOfDay(19, 0))
	in.CustomerID = &cust
	first, err := repo.Create(ctx, in, allow)
	require.NoError(t, err)

	_, err = repo.Create(ctx, in, allow)
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.Update(ctx, first.ID, func(_ Tx, r *Reservation) error {
		r.SetStatus(StatusCancelled)
		return nil
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, in, allow)
	assert.NoError(t, err, "a cancelled booking frees the slot")
}

func TestRepoBookedLocksVenueAndExcludes(t *testing.T) {
	pool := pgtest.Pool(t)
	venue := pgtest.Venue(t, pool, "owner-1", "17:00", "23:00", 5)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	a, err := repo.Create(ctx, sample(venue, slots.NewTimeOfDay(18, 0)), allow)
	require.NoError(t, err)
	b, err := repo.Create(ctx, sample(venue, slots.NewTimeOfDay(20, 0)), allow)
	require.NoError(t, err)

	var seen []Reservation
	_, err = repo.Update(ctx, a.ID, func(tx Tx, r *Reservation) error {
		booked, err := tx.Booked(ctx, r.VenueID, r.Date, r.ID)
		seen = booked
		if err != nil {
			return err
		}
		return ErrNoop
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, b.ID, seen[0].ID)

	_, err = repo.Update(ctx, a.ID, func(tx Tx, r *Reservation) error {
		_, err := tx.Booked(ctx, "no-such-venue", r.Date, "")
		return err
	})
	assert.True(t, errors.Is(err, ErrVenueNotFound))
}
