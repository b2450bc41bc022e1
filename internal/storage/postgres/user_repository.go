package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/igoramos77/uvents-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, matricula, name, email, password_hash, role, photo_url, is_active, last_login, created_at`

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	const stmt = `
INSERT INTO users (id, matricula, name, email, password_hash, role, photo_url, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := exec(ctx, r.pool, stmt,
		user.ID,
		user.Matricula,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.PhotoURL,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, q, id)
}

func (r *UserRepository) GetByMatricula(ctx context.Context, matricula string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE matricula = $1`
	return r.getOne(ctx, q, matricula)
}

func (r *UserRepository) getOne(ctx context.Context, q string, arg any) (domain.User, error) {
	var u domain.User
	err := queryRow(ctx, r.pool, q, arg).Scan(
		&u.ID, &u.Matricula, &u.Name, &u.Email, &u.PasswordHash,
		&u.Role, &u.PhotoURL, &u.IsActive, &u.LastLogin, &u.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.User{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Search matches name, matricula or email case-insensitively. An
// empty term lists everyone.
func (r *UserRepository) Search(ctx context.Context, term string) ([]domain.User, error) {
	q := `SELECT ` + userColumns + `
FROM users
WHERE name ILIKE $1 OR matricula ILIKE $1 OR email ILIKE $1
ORDER BY name ASC`

	rows, err := query(ctx, r.pool, q, "%"+term+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Matricula, &u.Name, &u.Email, &u.PasswordHash,
			&u.Role, &u.PhotoURL, &u.IsActive, &u.LastLogin, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate users: %w", rows.Err())
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	const stmt = `
UPDATE users
SET name = $2, email = $3, photo_url = $4
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, user.ID, user.Name, user.Email, user.PhotoURL)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const stmt = `UPDATE users SET last_login = $2 WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, id, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, matricula string) error {
	const stmt = `DELETE FROM users WHERE matricula = $1`

	tag, err := exec(ctx, r.pool, stmt, matricula)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
