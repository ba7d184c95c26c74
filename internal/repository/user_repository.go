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

type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash, code string, codeExpiresAt time.Time) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	SetVerificationCode(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	ConfirmVerification(ctx context.Context, userID int64, code string) (bool, error)
	TouchLastLogin(ctx context.Context, userID int64) error
	UpdateName(ctx context.Context, userID int64, name string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateRole(ctx context.Context, userID int64, role string, guardLastAdmin bool) error
	DeleteCascade(ctx context.Context, userID int64, guardLastAdmin bool) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, name, email, password_hash, role, is_verified, verification_code, code_expires_at, created_at, last_login`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsVerified, &u.VerificationCode, &u.CodeExpiresAt, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, name, email, passwordHash, code string, codeExpiresAt time.Time) (*domain.User, error) {
	const q = `
		INSERT INTO users (name, email, password_hash, role, is_verified, verification_code, code_expires_at)
		VALUES ($1, $2, $3, 'user', false, $4, $5)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, name, email, passwordHash, code, codeExpiresAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, domain.NormalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) SetVerificationCode(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET verification_code = $2, code_expires_at = $3
		WHERE id = $1 AND is_verified = false`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, code, expiresAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlreadyVerified
	}
	return nil
}

// ConfirmVerification flips is_verified exactly once via a compare-and-set on
// the stored code and its expiry. A concurrent resend that replaced the code
// makes the predicate fail (zero rows), never a half-applied state.
func (r *userRepository) ConfirmVerification(ctx context.Context, userID int64, code string) (bool, error) {
	const q = `
		UPDATE users
		SET is_verified = true,
		    verification_code = NULL,
		    code_expires_at = NULL,
		    last_login = now()
		WHERE id = $1
		  AND is_verified = false
		  AND verification_code = $2
		  AND code_expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, code)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, userID int64) error {
	const q = `UPDATE users SET last_login = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID)
	return err
}

func (r *userRepository) UpdateName(ctx context.Context, userID int64, name string) error {
	const q = `UPDATE users SET name = $2 WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, name)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateRole changes a user's role. With guardLastAdmin set, the target row is
// locked and the admin count re-read inside the same transaction, so two
// concurrent demotions cannot both observe a spare admin.
func (r *userRepository) UpdateRole(ctx context.Context, userID int64, role string, guardLastAdmin bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var currentRole string
	err = tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&currentRole)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if guardLastAdmin && currentRole == domain.RoleAdmin && role != domain.RoleAdmin {
		var adminCount int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = 'admin'`).Scan(&adminCount); err != nil {
			return err
		}
		if adminCount <= 1 {
			return domain.ErrLastAdmin
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, userID, role); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteCascade removes the user and their bookings in one transaction. With
// guardLastAdmin set it refuses to remove the only remaining admin, using the
// same lock-and-recount discipline as UpdateRole.
func (r *userRepository) DeleteCascade(ctx context.Context, userID int64, guardLastAdmin bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var role string
	err = tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if guardLastAdmin && role == domain.RoleAdmin {
		var adminCount int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = 'admin'`).Scan(&adminCount); err != nil {
			return err
		}
		if adminCount <= 1 {
			return domain.ErrLastAdmin
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE user_id = $1`, userID); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit(ctx)
}
