package postgres

import (
	"context"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepo interface {
	Create(ctx context.Context, userID int64, req *domain.CreateBookingRequest) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	List(ctx context.Context, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	// Confirm transitions a pending booking to confirmed and records the
	// gateway transaction code. Returns false when the booking does not
	// exist or is no longer pending.
	Confirm(ctx context.Context, id int64, transactionCode string) (bool, error)
	// Cancel transitions a pending booking to cancelled. Returns false
	// when the booking is not pending.
	Cancel(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type bookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) BookingRepo {
	return &bookingRepo{pool: pool}
}

const bookingCols = `id, user_id, destination_id, traveler_count, total_price,
status, payment_method, transaction_id, created_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.DestinationID, &b.TravelerCount, &b.TotalPrice,
		&b.Status, &b.PaymentMethod, &b.TransactionID, &b.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) Create(ctx context.Context, userID int64, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		user_id, destination_id, traveler_count, total_price, status, payment_method
	) VALUES ($1, $2, $3, $4, 'pending', $5)
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q,
		userID, req.DestinationID, req.TravelerCount, req.TotalPrice, req.PaymentMethod,
	))
}

func (r *bookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepo) List(ctx context.Context, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings`
	args := []any{}
	if status != nil {
		q += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, *status, limit, offset)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.DestinationID, &b.TravelerCount, &b.TotalPrice,
			&b.Status, &b.PaymentMethod, &b.TransactionID, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepo) Confirm(ctx context.Context, id int64, transactionCode string) (bool, error) {
	// The status guard is the only thing standing between a replayed
	// callback and a double transition; keep it in the WHERE clause.
	const q = `
		UPDATE bookings
		SET status = 'confirmed', transaction_id = $2
		WHERE id = $1 AND status = 'pending'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, transactionCode)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	const q = `
		UPDATE bookings
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
