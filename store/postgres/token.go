package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tokengate/tokengate/store"
	"github.com/tokengate/tokengate/token"
)

type TokenRepo struct {
	db DBTX
}

const insertToken = `-- name: InsertToken
INSERT INTO refresh_tokens (id, user_id, hashed_token, created_at, expires_at, revoked_at, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

func (r *TokenRepo) Insert(ctx context.Context, t token.RefreshToken) error {
	rows, _ := r.db.Query(ctx, insertToken,
		t.ID, t.UserID, t.HashedToken, t.CreatedAt, t.ExpiresAt, t.RevokedAt, t.IPAddress, t.UserAgent)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return store.ErrDuplicateToken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getTokenByHash = `-- name: GetTokenByHash
SELECT id, user_id, created_at, expires_at, revoked_at, ip_address, user_agent
FROM refresh_tokens
WHERE hashed_token = $1
`

// GetByHash returns the record even when it is expired or revoked. The
// caller decides what those states mean.
func (r *TokenRepo) GetByHash(ctx context.Context, hashedToken string) (token.RefreshToken, error) {
	rows, _ := r.db.Query(ctx, getTokenByHash, hashedToken)
	t, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (token.RefreshToken, error) {
		var t = token.RefreshToken{HashedToken: hashedToken}
		err := row.Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt, &t.IPAddress, &t.UserAgent)
		return t, err
	})

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, store.ErrTokenNotFound
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

const revokeTokenCAS = `-- name: RevokeTokenCAS
UPDATE refresh_tokens
SET revoked_at = $2
WHERE id = $1 AND revoked_at IS NULL
RETURNING id
`

// CompareAndSetRevoked wins only if the row is still unrevoked. A false
// result means another caller got there first; revoked_at is never
// overwritten.
func (r *TokenRepo) CompareAndSetRevoked(ctx context.Context, id uuid.UUID, revokedAt time.Time) (bool, error) {
	rows, _ := r.db.Query(ctx, revokeTokenCAS, id, revokedAt)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("db error: %w", err)
	}
}

const activeTokensByUser = `-- name: ActiveTokensByUser
SELECT id, user_id, hashed_token, created_at, expires_at, revoked_at, ip_address, user_agent
FROM refresh_tokens
WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
ORDER BY created_at ASC, id ASC
`

func (r *TokenRepo) ActiveByUser(ctx context.Context, userID uuid.UUID) ([]token.RefreshToken, error) {
	rows, _ := r.db.Query(ctx, activeTokensByUser, userID, time.Now())
	tokens, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (token.RefreshToken, error) {
		var t token.RefreshToken
		err := row.Scan(&t.ID, &t.UserID, &t.HashedToken, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt, &t.IPAddress, &t.UserAgent)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}
