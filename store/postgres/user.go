package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tokengate/tokengate/store"
)

type UserRepo struct {
	db DBTX
}

const getUserByID = `-- name: GetUserByID
SELECT id, email, password_hash, full_name, created_at
FROM users
WHERE id = $1
`

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (store.User, error) {
	rows, _ := r.db.Query(ctx, getUserByID, id)
	u, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, pgx.ErrNoRows):
		return u, store.ErrUserNotFound
	default:
		return u, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, email, password_hash, full_name, created_at
FROM users
WHERE email = $1
`

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (store.User, error) {
	rows, _ := r.db.Query(ctx, getUserByEmail, email)
	u, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, pgx.ErrNoRows):
		return u, store.ErrUserNotFound
	default:
		return u, fmt.Errorf("db error: %w", err)
	}
}

const saveUser = `-- name: SaveUser
INSERT INTO users (id, email, password_hash, full_name, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email, password_hash = EXCLUDED.password_hash, full_name = EXCLUDED.full_name
RETURNING id
`

func (r *UserRepo) Save(ctx context.Context, u store.User) error {
	rows, _ := r.db.Query(ctx, saveUser, u.ID, u.Email, u.PasswordHash, u.FullName, u.CreatedAt)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func rowToUser(row pgx.CollectableRow) (store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	return u, err
}
