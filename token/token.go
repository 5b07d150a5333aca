package token

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the durable record backing one refresh credential.
// Only the hash of the raw value is ever stored; the raw value stays
// with the client. RevokedAt is write-once: the store's compare-and-set
// is the single legal transition into the revoked state.
type RefreshToken struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	HashedToken string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	IPAddress   string
	UserAgent   string
}

// New builds an unrevoked record for the given owner and binding info.
// createdAt carries the sliding-window anchor, which may predate now on
// in-window rotation.
func New(userID uuid.UUID, hashedToken string, createdAt, expiresAt time.Time, ip, userAgent string) RefreshToken {
	return RefreshToken{
		ID:          uuid.New(),
		UserID:      userID,
		HashedToken: hashedToken,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
		IPAddress:   ip,
		UserAgent:   userAgent,
	}
}

// IsExpired reports whether the record's lifetime has elapsed at now.
func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsRevoked reports whether the record has entered the revoked state.
func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive reports whether the record is neither expired nor revoked.
func (t RefreshToken) IsActive(now time.Time) bool {
	return !t.IsExpired(now) && !t.IsRevoked()
}

// RemainingLife returns how long the record stays usable from now,
// clamped at zero. Used to size blacklist TTLs.
func (t RefreshToken) RemainingLife(now time.Time) time.Duration {
	d := t.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// NewRawValue mints the opaque refresh credential handed to clients.
func NewRawValue() string {
	return uuid.NewString()
}
