// Package store defines the persistence contracts consumed by the
// lifecycle engine: a durable refresh-token store keyed by hashed value
// and a user directory for identity lookups. Implementations live in
// subpackages; tests may supply in-memory fakes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tokengate/tokengate/token"
)

var (
	// ErrTokenNotFound is returned when no record matches the hashed value.
	ErrTokenNotFound = errors.New("refresh token not found")
	// ErrDuplicateToken is returned when an insert collides on hashed_token.
	ErrDuplicateToken = errors.New("refresh token hash already exists")
	// ErrUserNotFound is returned when no user matches the identifier.
	ErrUserNotFound = errors.New("user not found")
)

// User is the identity record served by a UserDirectory.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}

// TokenStore is durable CRUD for refresh-token records. Rows are
// identified by their unique hashed value; revocation is a one-way
// compare-and-set, which doubles as the linearization point for
// concurrent rotations of the same token.
type TokenStore interface {
	// GetByHash fetches a record by its hashed value, regardless of
	// expiry or revocation state. Returns ErrTokenNotFound when absent.
	GetByHash(ctx context.Context, hashedToken string) (token.RefreshToken, error)

	// Insert persists a new record. Returns ErrDuplicateToken when the
	// hashed value is already present.
	Insert(ctx context.Context, t token.RefreshToken) error

	// CompareAndSetRevoked sets revoked_at on the record iff it is still
	// null. Returns false when a concurrent caller revoked it first.
	CompareAndSetRevoked(ctx context.Context, id uuid.UUID, revokedAt time.Time) (bool, error)

	// ActiveByUser lists a user's unexpired, unrevoked records ordered
	// by creation time ascending, ties broken by ID.
	ActiveByUser(ctx context.Context, userID uuid.UUID) ([]token.RefreshToken, error)
}

// UserDirectory serves identity records. Save is the commit boundary
// for profile mutations; the engine only reads.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Save(ctx context.Context, u User) error
}
