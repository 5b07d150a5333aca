// Package blacklist keeps a short-lived Redis index of hashed refresh
// tokens that were revoked before their natural expiry. Entries carry a
// TTL equal to the token's remaining life, so the index cleans itself
// up and never grows past the set of tokens that could still be
// replayed. The durable store stays authoritative; this index only
// lets hot paths reject known-bad values with a single lookup.
package blacklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned when the Redis backend cannot be reached.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "tgbl"

// Entry records why and for whom a hashed token was blacklisted.
type Entry struct {
	UserID        uuid.UUID `json:"user_id"`
	BlacklistedAt time.Time `json:"blacklisted_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Store is a Redis-backed blacklist keyed by hashed token value.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a blacklist [Store] backed by the given Redis
// client. prefix sets the key namespace; empty selects the default.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: redis, prefix: prefix}
}

func (s *Store) key(hashedToken string) string {
	return s.prefix + ":" + hashedToken
}

// Put blacklists a hashed token until expiresAt. Tokens already past
// their expiry are skipped; the durable store rejects them on its own.
func (s *Store) Put(ctx context.Context, hashedToken string, entry Entry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(hashedToken), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Exists reports whether the hashed token is currently blacklisted.
func (s *Store) Exists(ctx context.Context, hashedToken string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(hashedToken)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Get returns the entry for a hashed token, or redis.Nil when absent.
func (s *Store) Get(ctx context.Context, hashedToken string) (Entry, error) {
	var entry Entry

	data, err := s.redis.Get(ctx, s.key(hashedToken)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entry, err
		}
		return entry, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, err
	}

	return entry, nil
}
