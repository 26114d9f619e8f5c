// Package pgtest hands tests a migrated pool on the database named by
// POSTGRES_DSN. Tests using it are skipped when the variable is unset.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// Venue inserts a venue with a fresh id and removes it, and its reservations,
// when the test ends.
func Venue(t *testing.T, pool *pgxpool.Pool, ownerID, openAt, closeAt string, tables int) string {
	t.Helper()
	id := "t-" + uuid.NewString()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO venues(id, name, owner_id, owner_email, open_time, close_time, tables)
		VALUES ($1, $2, $3, $4, $5::time, $6::time, $7)`,
		id, "Test Venue", ownerID, ownerID+"@example.test", openAt, closeAt, tables)
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM venues WHERE id=$1`, id)
	})
	return id
}
