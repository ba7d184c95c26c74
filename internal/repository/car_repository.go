package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/rentora-backend/internal/domain"
)

type CarRepository interface {
	Create(ctx context.Context, req *domain.CarRequest) (*domain.Car, error)
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Car, error)
	Update(ctx context.Context, id int64, req *domain.CarRequest) (*domain.Car, error)
	Delete(ctx context.Context, id int64) error
}

type carRepository struct {
	pool *pgxpool.Pool
}

func NewCarRepository(pool *pgxpool.Pool) CarRepository {
	return &carRepository{pool: pool}
}

const carCols = `id, name, brand, details, image_url, is_active, year, seats, transmission, fuel, features, specs, created_at, updated_at`

func scanCar(row pgx.Row) (*domain.Car, error) {
	var c domain.Car
	err := row.Scan(
		&c.ID, &c.Name, &c.Brand, &c.Details, &c.ImageURL, &c.IsActive,
		&c.Year, &c.Seats, &c.Transmission, &c.Fuel, &c.Features, &c.Specs,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Features == nil {
		c.Features = []string{}
	}
	if c.Specs == nil {
		c.Specs = map[string]string{}
	}
	return &c, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *carRepository) Create(ctx context.Context, req *domain.CarRequest) (*domain.Car, error) {
	const q = `
		INSERT INTO cars (name, brand, details, image_url, is_active, year, seats, transmission, fuel, features, specs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + carCols

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	features := req.Features
	if features == nil {
		features = []string{}
	}
	specs := req.Specs
	if specs == nil {
		specs = map[string]string{}
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanCar(r.pool.QueryRow(ctx, q,
		strOrEmpty(req.Name), strOrEmpty(req.Brand), strOrEmpty(req.Details), strOrEmpty(req.ImageURL),
		isActive, strOrEmpty(req.Year), strOrEmpty(req.Seats), strOrEmpty(req.Transmission),
		strOrEmpty(req.Fuel), features, specs))
}

func (r *carRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	const q = `SELECT ` + carCols + ` FROM cars WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCar(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *carRepository) List(ctx context.Context, activeOnly bool) ([]domain.Car, error) {
	q := `SELECT ` + carCols + ` FROM cars`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []domain.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, *c)
	}
	return cars, rows.Err()
}

func (r *carRepository) Update(ctx context.Context, id int64, req *domain.CarRequest) (*domain.Car, error) {
	const q = `
		UPDATE cars
		SET name = COALESCE($2, name),
		    brand = COALESCE($3, brand),
		    details = COALESCE($4, details),
		    image_url = COALESCE($5, image_url),
		    is_active = COALESCE($6, is_active),
		    year = COALESCE($7, year),
		    seats = COALESCE($8, seats),
		    transmission = COALESCE($9, transmission),
		    fuel = COALESCE($10, fuel),
		    features = COALESCE($11, features),
		    specs = COALESCE($12, specs),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + carCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCar(r.pool.QueryRow(ctx, q, id,
		req.Name, req.Brand, req.Details, req.ImageURL, req.IsActive,
		req.Year, req.Seats, req.Transmission, req.Fuel, req.Features, req.Specs))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *carRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM cars WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
