package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `id, venue_id, customer_id, name, email, phone, res_date, res_time, guests,
	status, arrival_status, comments, allergies, special_request, table_id, version, created_at, updated_at`

const uniqueViolation = "23505"

// Repo is the postgres-backed Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) Get(ctx context.Context, id string) (Reservation, error) {
	if !validID(id) {
		return Reservation{}, ErrNotFound
	}
	row := r.DB.QueryRow(ctx, `SELECT `+selectColumns+` FROM reservations WHERE id=$1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	return res, err
}

func (r *Repo) ListByVenueDate(ctx context.Context, venueID string, date time.Time) ([]Reservation, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+selectColumns+` FROM reservations
		WHERE venue_id=$1 AND res_date=$2 AND status <> 'cancelled'
		ORDER BY res_time`, venueID, slots.DateOf(date))
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Create locks the venue row, hands the day's bookings to check, then inserts.
// The partial unique index on (customer_id, venue_id, res_date, res_time)
// backs up the duplicate guard if two transactions race past check.
func (r *Repo) Create(ctx context.Context, res Reservation, check func(booked []Reservation) error) (Reservation, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t := &pgTx{tx: tx}
	booked, err := t.Booked(ctx, res.VenueID, res.Date, "")
	if err != nil {
		return Reservation{}, err
	}
	if err := check(booked); err != nil {
		return Reservation{}, err
	}

	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO reservations(id, venue_id, customer_id, name, email, phone, res_date, res_time, guests,
			status, arrival_status, comments, allergies, special_request, table_id, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,1)
		RETURNING `+selectColumns,
		res.ID, res.VenueID, res.CustomerID, res.Name, res.Email, res.Phone, slots.DateOf(res.Date), pgTime(res.Time),
		res.Guests, string(res.Status), string(res.ArrivalStatus), res.Comments, res.Allergies, res.SpecialRequest, res.TableID,
	)
	created, err := scanReservation(row)
	if err != nil {
		return Reservation{}, translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, translate(err)
	}
	return created, nil
}

// Update takes a row lock (SELECT ... FOR UPDATE), lets mutate edit a copy and
// writes it back with a version bump. Concurrent updates of the same row queue
// on the lock and each sees the previous commit.
func (r *Repo) Update(ctx context.Context, id string, mutate func(tx Tx, res *Reservation) error) (Reservation, error) {
	if !validID(id) {
		return Reservation{}, ErrNotFound
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanReservation(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM reservations WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	if err != nil {
		return Reservation{}, err
	}

	next := current
	if err := mutate(&pgTx{tx: tx}, &next); err != nil {
		if errors.Is(err, ErrNoop) {
			return current, nil
		}
		return Reservation{}, err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE reservations SET
			name=$3, email=$4, phone=$5, res_date=$6, res_time=$7, guests=$8,
			status=$9, arrival_status=$10, comments=$11, allergies=$12, special_request=$13,
			table_id=$14, version=version+1, updated_at=now()
		WHERE id=$1 AND version=$2`,
		id, current.Version, next.Name, next.Email, next.Phone, slots.DateOf(next.Date), pgTime(next.Time), next.Guests,
		string(next.Status), string(next.ArrivalStatus), next.Comments, next.Allergies, next.SpecialRequest, next.TableID,
	)
	if err != nil {
		return Reservation{}, translate(err)
	}
	if ct.RowsAffected() != 1 {
		return Reservation{}, ErrVersionConflict
	}

	saved, err := scanReservation(tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM reservations WHERE id=$1`, id))
	if err != nil {
		return Reservation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, err
	}
	return saved, nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Booked(ctx context.Context, venueID string, date time.Time, exclude string) ([]Reservation, error) {
	var locked string
	err := t.tx.QueryRow(ctx, `SELECT id FROM venues WHERE id=$1 FOR UPDATE`, venueID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, `SELECT `+selectColumns+` FROM reservations
		WHERE venue_id=$1 AND res_date=$2 AND status <> 'cancelled' AND id::text <> $3
		ORDER BY res_time`, venueID, slots.DateOf(date), exclude)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Reservation, error) {
	defer rows.Close()
	var out []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (Reservation, error) {
	var (
		res        Reservation
		status     string
		arrival    string
		resTime    pgtype.Time
		customerID pgtype.Text
		tableID    pgtype.Text
		comments   pgtype.Text
		allergies  pgtype.Text
		specialReq pgtype.Text
		phone      pgtype.Text
	)
	err := row.Scan(&res.ID, &res.VenueID, &customerID, &res.Name, &res.Email, &phone, &res.Date, &resTime, &res.Guests,
		&status, &arrival, &comments, &allergies, &specialReq, &tableID, &res.Version, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return Reservation{}, err
	}
	res.Status = Status(status)
	res.ArrivalStatus = ArrivalStatus(arrival)
	res.Date = slots.DateOf(res.Date)
	res.Time = slots.TimeOfDay(resTime.Microseconds / int64(time.Minute/time.Microsecond))
	res.Phone = phone.String
	res.Comments = comments.String
	res.Allergies = allergies.String
	res.SpecialRequest = specialReq.String
	if customerID.Valid {
		res.CustomerID = &customerID.String
	}
	if tableID.Valid {
		res.TableID = &tableID.String
	}
	return res, nil
}

// validID reports whether id can name a row; the id column is a UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func pgTime(t slots.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Duration() / time.Microsecond), Valid: true}
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &ValidationError{Field: "time", Reason: "is already booked by this customer", Err: ErrDuplicate}
	}
	return fmt.Errorf("reservation store: %w", err)
}
