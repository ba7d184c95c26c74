package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserTotals is the user-side rollup for dashboards.
type UserTotals struct {
	Total      int64 `json:"total"`
	Verified   int64 `json:"verified"`
	Admins     int64 `json:"admins"`
	Moderators int64 `json:"moderators"`
}

// BookingTotals is the booking-side rollup for dashboards.
type BookingTotals struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	Confirmed   int64 `json:"confirmed"`
	Completed   int64 `json:"completed"`
	Cancelled   int64 `json:"cancelled"`
	Recent7Days int64 `json:"recent_7_days"`
}

// DayCount is one day's worth of activity. Days with no rows are absent;
// the stats service zero-fills the calendar.
type DayCount struct {
	Day   time.Time
	Count int64
}

type StatsRepository interface {
	UserTotals(ctx context.Context) (*UserTotals, error)
	BookingTotals(ctx context.Context) (*BookingTotals, error)
	TotalRevenueCents(ctx context.Context) (int64, error)
	BookingsPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
	SignupsPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
	RevenuePerDay(ctx context.Context, since time.Time) ([]DayCount, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) UserTotals(ctx context.Context) (*UserTotals, error) {
	const q = `
		SELECT count(*),
		       count(*) FILTER (WHERE is_verified),
		       count(*) FILTER (WHERE role = 'admin'),
		       count(*) FILTER (WHERE role = 'moderator')
		FROM users`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t UserTotals
	err := r.pool.QueryRow(ctx, q).Scan(&t.Total, &t.Verified, &t.Admins, &t.Moderators)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *statsRepository) BookingTotals(ctx context.Context) (*BookingTotals, error) {
	const q = `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'pending'),
		       count(*) FILTER (WHERE status = 'confirmed'),
		       count(*) FILTER (WHERE status = 'completed'),
		       count(*) FILTER (WHERE status = 'cancelled'),
		       count(*) FILTER (WHERE created_at >= now() - interval '7 days')
		FROM bookings`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t BookingTotals
	err := r.pool.QueryRow(ctx, q).Scan(&t.Total, &t.Pending, &t.Confirmed, &t.Completed, &t.Cancelled, &t.Recent7Days)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *statsRepository) TotalRevenueCents(ctx context.Context) (int64, error) {
	const q = `SELECT coalesce(sum(price_cents), 0) FROM bookings WHERE status = 'completed'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int64
	err := r.pool.QueryRow(ctx, q).Scan(&total)
	return total, err
}

func (r *statsRepository) BookingsPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	const q = `
		SELECT created_at::date, count(*)
		FROM bookings
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1`
	return r.queryDayCounts(ctx, q, since)
}

func (r *statsRepository) SignupsPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	const q = `
		SELECT created_at::date, count(*)
		FROM users
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1`
	return r.queryDayCounts(ctx, q, since)
}

func (r *statsRepository) RevenuePerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	const q = `
		SELECT created_at::date, coalesce(sum(price_cents), 0)
		FROM bookings
		WHERE created_at >= $1 AND status = 'completed'
		GROUP BY 1
		ORDER BY 1`
	return r.queryDayCounts(ctx, q, since)
}

func (r *statsRepository) queryDayCounts(ctx context.Context, q string, since time.Time) ([]DayCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}
