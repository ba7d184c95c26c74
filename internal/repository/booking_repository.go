package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/rentora-backend/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, userID int64, req *domain.CreateBookingRequest, rideDate *time.Time) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListAll(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `b.id, b.user_id, u.name, u.email, b.pickup_location, b.dropoff_location,
	b.car_type, b.status, b.price_cents, b.ride_date, b.created_at, b.updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.UserName, &b.UserEmail, &b.PickupLocation, &b.DropoffLocation,
		&b.CarType, &b.Status, &b.PriceCents, &b.RideDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, userID int64, req *domain.CreateBookingRequest, rideDate *time.Time) (*domain.Booking, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO bookings (user_id, pickup_location, dropoff_location, car_type, status, price_cents, ride_date)
			VALUES ($1, $2, $3, $4, 'pending', $5, $6)
			RETURNING *
		)
		SELECT ` + bookingCols + `
		FROM inserted b JOIN users u ON u.id = b.user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q,
		userID, req.PickupLocation, req.DropoffLocation, req.CarType, req.PriceCents, rideDate))
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings b JOIN users u ON u.id = b.user_id WHERE b.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingCols + `
		FROM bookings b JOIN users u ON u.id = b.user_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) ListAll(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings b JOIN users u ON u.id = b.user_id`
	args := []any{}
	if status != nil {
		q += ` WHERE b.status = $1`
		args = append(args, *status)
	}
	q += ` ORDER BY b.created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	const q = `
		WITH updated AS (
			UPDATE bookings SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + bookingCols + `
		FROM updated b JOIN users u ON u.id = b.user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
