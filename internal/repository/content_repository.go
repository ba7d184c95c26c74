package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/rentora-backend/internal/domain"
)

type ContentRepository interface {
	Create(ctx context.Context, req *domain.ContentBlockRequest, updatedBy int64) (*domain.ContentBlock, error)
	GetByID(ctx context.Context, id int64) (*domain.ContentBlock, error)
	List(ctx context.Context, keyFilter string) ([]domain.ContentBlock, error)
	Update(ctx context.Context, id int64, req *domain.ContentBlockRequest, updatedBy int64) (*domain.ContentBlock, error)
}

type contentRepository struct {
	pool *pgxpool.Pool
}

func NewContentRepository(pool *pgxpool.Pool) ContentRepository {
	return &contentRepository{pool: pool}
}

const contentCols = `c.id, c.key, c.title, c.content, c.media_url, c.updated_by, coalesce(u.name, ''), c.created_at, c.updated_at`

func scanContentBlock(row pgx.Row) (*domain.ContentBlock, error) {
	var b domain.ContentBlock
	err := row.Scan(
		&b.ID, &b.Key, &b.Title, &b.Content, &b.MediaURL,
		&b.UpdatedBy, &b.UpdatedByName, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *contentRepository) Create(ctx context.Context, req *domain.ContentBlockRequest, updatedBy int64) (*domain.ContentBlock, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO content_blocks (key, title, content, media_url, updated_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *
		)
		SELECT ` + contentCols + `
		FROM inserted c LEFT JOIN users u ON u.id = c.updated_by`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanContentBlock(r.pool.QueryRow(ctx, q,
		strOrEmpty(req.Key), strOrEmpty(req.Title), strOrEmpty(req.Content), strOrEmpty(req.MediaURL), updatedBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrKeyExists
		}
		return nil, err
	}
	return b, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id int64) (*domain.ContentBlock, error) {
	const q = `SELECT ` + contentCols + ` FROM content_blocks c LEFT JOIN users u ON u.id = c.updated_by WHERE c.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanContentBlock(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *contentRepository) List(ctx context.Context, keyFilter string) ([]domain.ContentBlock, error) {
	q := `SELECT ` + contentCols + ` FROM content_blocks c LEFT JOIN users u ON u.id = c.updated_by`
	args := []any{}
	if keyFilter != "" {
		q += ` WHERE c.key = $1`
		args = append(args, keyFilter)
	}
	q += ` ORDER BY c.key`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.ContentBlock
	for rows.Next() {
		b, err := scanContentBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

func (r *contentRepository) Update(ctx context.Context, id int64, req *domain.ContentBlockRequest, updatedBy int64) (*domain.ContentBlock, error) {
	const q = `
		WITH updated AS (
			UPDATE content_blocks
			SET title = COALESCE($2, title),
			    content = COALESCE($3, content),
			    media_url = COALESCE($4, media_url),
			    updated_by = $5,
			    updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + contentCols + `
		FROM updated c LEFT JOIN users u ON u.id = c.updated_by`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanContentBlock(r.pool.QueryRow(ctx, q, id, req.Title, req.Content, req.MediaURL, updatedBy))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}
