package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hedoomy/backoffice/internal/shared"
)

// Repository loads and stores admin users.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user User) error
	SetActive(ctx context.Context, id string, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed user repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, is_active, created_at`

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM admin_users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *repository) Get(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM admin_users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM admin_users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *repository) Create(ctx context.Context, user User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admin_users (id, email, name, password_hash, role, is_active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.IsActive, time.Now().UTC())
	return err
}

func (r *repository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admin_users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
