package tokengate

import (
	"context"
	"time"

	"github.com/tokengate/tokengate/blacklist"
	"github.com/tokengate/tokengate/store"
)

// User is the identity record served by the user directory.
type User = store.User

// TokenPair is returned by [Engine.Issue], [Engine.Login] and
// [Engine.Rotate]: a signed access token plus the raw refresh value.
// The raw refresh value is never stored; only its hash is.
type TokenPair struct {
	Access  string
	Refresh string
}

// SessionInfo is a read projection of one active refresh-token record,
// suitable for a "your devices" listing.
type SessionInfo struct {
	SessionID string
	CreatedAt time.Time
	IPAddress string
	UserAgent string
	IsActive  bool
}

// CredentialVerifier checks a login password against a stored hash.
// [password.Argon2] satisfies it; hosts with a legacy scheme supply
// their own.
type CredentialVerifier interface {
	Verify(password string, encodedHash string) (bool, error)
}

// AccessIssuer mints the access token of a [TokenPair]. [jwt.Manager]
// satisfies it.
type AccessIssuer interface {
	CreateAccess(uid, sid, email string) (string, error)
}

// Blacklist is the fast-reject index consulted before any store read.
// [blacklist.Store] satisfies it. All writes through it are
// best-effort: the durable store stays authoritative.
type Blacklist interface {
	Put(ctx context.Context, hashedToken string, entry blacklist.Entry) error
	Exists(ctx context.Context, hashedToken string) (bool, error)
}
