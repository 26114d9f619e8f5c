package venues

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Get(ctx context.Context, id string) (reservations.Venue, error) {
	var v reservations.Venue
	var openAt, closeAt pgtype.Time
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, owner_id, owner_email, open_time, close_time, tables
		FROM venues WHERE id=$1`, id).
		Scan(&v.ID, &v.Name, &v.OwnerID, &v.OwnerEmail, &openAt, &closeAt, &v.Tables)
	if errors.Is(err, pgx.ErrNoRows) {
		return reservations.Venue{}, reservations.ErrVenueNotFound
	}
	if err != nil {
		return reservations.Venue{}, err
	}
	v.Hours = slots.Hours{Open: fromPG(openAt), Close: fromPG(closeAt)}
	return v, nil
}

// Upsert seeds or updates a venue row, e.g. from the YAML catalog.
func (r *Repo) Upsert(ctx context.Context, v reservations.Venue) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO venues(id, name, owner_id, owner_email, open_time, close_time, tables)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, owner_id=EXCLUDED.owner_id, owner_email=EXCLUDED.owner_email,
			open_time=EXCLUDED.open_time, close_time=EXCLUDED.close_time, tables=EXCLUDED.tables`,
		v.ID, v.Name, v.OwnerID, v.OwnerEmail, toPG(v.Hours.Open), toPG(v.Hours.Close), v.Capacity())
	return err
}

func fromPG(t pgtype.Time) slots.TimeOfDay {
	return slots.TimeOfDay(t.Microseconds / int64(time.Minute/time.Microsecond))
}

func toPG(t slots.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Duration() / time.Microsecond), Valid: true}
}
