package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/notify"
	"github.com/ariefcatur/go-realtime-reservations/internal/postgres/pgtest"
	"github.com/ariefcatur/go-realtime-reservations/internal/realtime"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/ariefcatur/go-realtime-reservations/internal/venues"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPGController(t *testing.T) (*Controller, *reservations.Repo, string) {
	t.Helper()
	pool := pgtest.Pool(t)
	venue := pgtest.Venue(t, pool, owner.ID, "17:00", "23:00", 1)
	store := &reservations.Repo{DB: pool}
	ctl := New(Deps{
		Store:      store,
		Venues:     &venues.Repo{DB: pool},
		Calculator: slots.New(30*time.Minute, time.Hour),
		Router:     notify.Router{Links: notify.Links{}},
		Fanout:     realtime.NewFanout(&batchRecorder{}, time.Hour, zap.NewNop()),
		Mailer:     &fakeMailer{},
		Logger:     zap.NewNop(),
	})
	return ctl, store, venue
}

func TestPGMoveBackAfterCancelRechecksSlot(t *testing.T) {
	ctl, store, venue := newPGController(t)
	ctx := context.Background()
	at := slots.NewTimeOfDay(19, 0)

	first, err := ctl.Create(ctx, customer, draft(venue, at))
	require.NoError(t, err)
	_, err = ctl.Cancel(ctx, customer, first.ID)
	require.NoError(t, err)
	second, err := ctl.Create(ctx, customer, draft(venue, at))
	require.NoError(t, err)

	_, ok, err := ctl.MoveToRequests(ctx, owner, first.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, reservations.ErrDuplicate)

	_, err = ctl.Cancel(ctx, customer, second.ID)
	require.NoError(t, err)
	other := reservations.Principal{ID: "cust-2", Role: reservations.RoleCustomer}
	_, err = ctl.Create(ctx, other, draft(venue, at))
	require.NoError(t, err)

	_, _, err = ctl.MoveToRequests(ctx, owner, first.ID)
	assert.ErrorIs(t, err, slots.ErrSlotTaken)

	active, err := store.ListByVenueDate(ctx, venue, day)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestPGRacingTransitionsPersistOneOutcome(t *testing.T) {
	ctl, store, venue := newPGController(t)
	ctx := context.Background()
	r, err := ctl.Create(ctx, customer, draft(venue, slots.NewTimeOfDay(19, 0)))
	require.NoError(t, err)

	errs := make(chan error, 2)
	for _, to := range []reservations.Status{reservations.StatusAccepted, reservations.StatusRejected} {
		go func(to reservations.Status) {
			_, err := ctl.Transition(ctx, owner, r.ID, to)
			errs <- err
		}(to)
	}
	failures := 0
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.True(t, reservations.IsIllegalTransition(err))
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	final, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.NotEqual(t, reservations.StatusPending, final.Status)
	assert.Equal(t, 2, final.Version)

	_, err = ctl.Get(ctx, owner, "abc")
	assert.ErrorIs(t, err, reservations.ErrNotFound)
}
