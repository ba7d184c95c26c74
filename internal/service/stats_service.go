package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rentora/rentora-backend/internal/repository"
)

// DashboardSummary is the rollup shown at the top of the admin dashboard.
type DashboardSummary struct {
	Users    repository.UserTotals    `json:"users"`
	Bookings repository.BookingTotals `json:"bookings"`
	Revenue  RevenueSummary           `json:"revenue"`
}

type RevenueSummary struct {
	TotalCents int64 `json:"total_cents"`
}

// ChartPoint is one calendar day's value in a time series.
type ChartPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DashboardCharts holds the per-day series for the selected trailing window.
type DashboardCharts struct {
	BookingsOverTime   []ChartPoint     `json:"bookings_over_time"`
	RevenueOverTime    []ChartPoint     `json:"revenue_over_time"`
	UsersOverTime      []ChartPoint     `json:"users_over_time"`
	StatusDistribution map[string]int64 `json:"booking_status_distribution"`
}

type StatsService interface {
	UserCounts(ctx context.Context) (*repository.UserTotals, error)
	Summary(ctx context.Context) (*DashboardSummary, error)
	Charts(ctx context.Context, rangeType string) (*DashboardCharts, error)
}

type statsService struct {
	statsRepo repository.StatsRepository
	now       func() time.Time
}

func NewStatsService(statsRepo repository.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo, now: time.Now}
}

func (s *statsService) UserCounts(ctx context.Context) (*repository.UserTotals, error) {
	users, err := s.statsRepo.UserTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user totals: %w", err)
	}
	return users, nil
}

func (s *statsService) Summary(ctx context.Context) (*DashboardSummary, error) {
	users, err := s.statsRepo.UserTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user totals: %w", err)
	}
	bookings, err := s.statsRepo.BookingTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking totals: %w", err)
	}
	revenue, err := s.statsRepo.TotalRevenueCents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue total: %w", err)
	}

	return &DashboardSummary{
		Users:    *users,
		Bookings: *bookings,
		Revenue:  RevenueSummary{TotalCents: revenue},
	}, nil
}

// rangeDays maps the range query parameter to a trailing window; anything
// unrecognized falls back to a week, matching the dashboard default.
func rangeDays(rangeType string) int {
	switch rangeType {
	case "30d":
		return 30
	case "90d":
		return 90
	default:
		return 7
	}
}

func (s *statsService) Charts(ctx context.Context, rangeType string) (*DashboardCharts, error) {
	days := rangeDays(rangeType)
	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))

	bookings, err := s.statsRepo.BookingsPerDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings series: %w", err)
	}
	revenue, err := s.statsRepo.RevenuePerDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue series: %w", err)
	}
	signups, err := s.statsRepo.SignupsPerDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load signup series: %w", err)
	}
	totals, err := s.statsRepo.BookingTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking totals: %w", err)
	}

	return &DashboardCharts{
		BookingsOverTime: fillDays(bookings, since, days),
		RevenueOverTime:  fillDays(revenue, since, days),
		UsersOverTime:    fillDays(signups, since, days),
		StatusDistribution: map[string]int64{
			"pending":   totals.Pending,
			"confirmed": totals.Confirmed,
			"completed": totals.Completed,
			"cancelled": totals.Cancelled,
		},
	}, nil
}

// fillDays expands sparse per-day counts into one point per calendar day,
// zero-filled and ordered oldest to newest.
func fillDays(counts []repository.DayCount, since time.Time, days int) []ChartPoint {
	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day.Format("2006-01-02")] = c.Count
	}

	points := make([]ChartPoint, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		points = append(points, ChartPoint{Date: day, Count: byDay[day]})
	}
	return points
}
