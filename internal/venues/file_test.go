package venues

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const catalogYAML = `
venues:
  - id: blue-door
    name: Blue Door
    owner_id: u-42
    owner_email: owner@bluedoor.test
    hours: {open: "18:00", close: "02:00"}
    tables: 6
  - id: night-owl
    name: Night Owl
    owner_id: u-7
    owner_email: owl@example.test
    hours: {open: "06:00", close: "04:00"}
`

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "venues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), catalogYAML)
	f, err := LoadFile(path, zap.NewNop())
	require.NoError(t, err)

	v, err := f.Get(context.Background(), "blue-door")
	require.NoError(t, err)
	assert.Equal(t, "u-42", v.OwnerID)
	assert.Equal(t, slots.NewTimeOfDay(18, 0), v.Hours.Open)
	assert.Equal(t, slots.NewTimeOfDay(2, 0), v.Hours.Close)
	assert.True(t, v.Hours.CrossesMidnight())
	assert.Equal(t, 6, v.Capacity())

	owl, err := f.Get(context.Background(), "night-owl")
	require.NoError(t, err)
	assert.Equal(t, 1, owl.Capacity())

	_, err = f.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, reservations.ErrVenueNotFound)
	assert.True(t, f.Has("night-owl"))

	all := f.All()
	require.Len(t, all, 2)
	assert.Equal(t, "blue-door", all[0].ID)
	assert.Equal(t, "night-owl", all[1].ID)
}

func TestLoadFileRejectsBadCatalog(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile(writeCatalog(t, dir, "venues:\n  - id: x\n    hours: {open: \"25:00\", close: \"02:00\"}\n"), nil)
	assert.Error(t, err)

	_, err = LoadFile(writeCatalog(t, dir, "venues:\n  - id: x\n    hours: {open: \"10:00\", close: \"10:00\"}\n"), nil)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, catalogYAML)
	f, err := LoadFile(path, nil)
	require.NoError(t, err)

	writeCatalog(t, dir, "venues: [")
	assert.Error(t, f.Reload())
	assert.Equal(t, 2, f.Len())
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, catalogYAML)
	f, err := LoadFile(path, zap.NewNop())
	require.NoError(t, err)

	reloaded := make(chan []reservations.Venue, 16)
	f.OnReload(func(vs []reservations.Venue) {
		select {
		case reloaded <- vs:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.Watch(ctx))

	writeCatalog(t, dir, catalogYAML+`  - id: late-bar
    name: Late Bar
    owner_id: u-9
    owner_email: late@example.test
    hours: {open: "20:00", close: "23:30"}
`)
	require.Eventually(t, func() bool { return f.Has("late-bar") }, 5*time.Second, 20*time.Millisecond)

	seen := false
	for !seen {
		select {
		case vs := <-reloaded:
			for _, v := range vs {
				seen = seen || v.ID == "late-bar"
			}
		case <-time.After(time.Second):
			t.Fatal("reload hook not called with the new catalog")
		}
	}
}
