package tokengate

import (
	"errors"
	"time"
)

// Config collects every tunable of the engine. Instances are configured
// during initialization and treated as immutable afterwards; the
// builder clones key material so callers cannot mutate it later.
type Config struct {
	Token     TokenConfig
	Hasher    HasherConfig
	Sessions  SessionConfig
	JWT       JWTConfig
	Blacklist BlacklistConfig
	Security  SecurityConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls refresh-token lifetimes and the sliding-window
// renewal rule.
type TokenConfig struct {
	Lifetime          time.Duration
	SlidingExpiration bool
	WindowPeriod      time.Duration
	MaxLifetime       time.Duration
}

// HasherConfig carries the pepper for the deterministic token hasher.
type HasherConfig struct {
	Pepper []byte
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the per-user concurrent session cap.
type SessionConfig struct {
	ConcurrentLoginDetection bool
	MaxConcurrentSessions    int
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the access tokens paired with refresh tokens.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
}

// BlacklistConfig controls the Redis fast-reject index.
type BlacklistConfig struct {
	Prefix string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig toggles the theft-detection behaviors.
type SecurityConfig struct {
	ReuseDetection   bool
	IPBinding        bool
	UserAgentBinding bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the atomic engine counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Lifetime:          7 * 24 * time.Hour,
			SlidingExpiration: true,
			WindowPeriod:      3 * 24 * time.Hour,
			MaxLifetime:       30 * 24 * time.Hour,
		},
		Sessions: SessionConfig{
			ConcurrentLoginDetection: true,
			MaxConcurrentSessions:    5,
		},
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			SigningMethod: "ed25519",
		},
		Blacklist: BlacklistConfig{
			Prefix: "tgbl",
		},
		Security: SecurityConfig{
			ReuseDetection:   true,
			IPBinding:        true,
			UserAgentBinding: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the recommended production configuration.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Hasher.Pepper = cloneBytes(cfg.Hasher.Pepper)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	// Token lifetimes
	if c.Token.Lifetime <= 0 {
		return errors.New("Token Lifetime must be > 0")
	}
	if c.Token.SlidingExpiration {
		if c.Token.WindowPeriod <= 0 {
			return errors.New("Token WindowPeriod must be > 0 when SlidingExpiration is enabled")
		}
		if c.Token.WindowPeriod > c.Token.Lifetime {
			return errors.New("Token WindowPeriod must not exceed Lifetime")
		}
		if c.Token.MaxLifetime < c.Token.Lifetime {
			return errors.New("Token MaxLifetime must be >= Lifetime")
		}
	}

	// Hasher
	if len(c.Hasher.Pepper) < 16 {
		return errors.New("Hasher Pepper must be at least 16 bytes")
	}

	// Sessions
	if c.Sessions.ConcurrentLoginDetection && c.Sessions.MaxConcurrentSessions < 1 {
		return errors.New("Sessions MaxConcurrentSessions must be >= 1 when detection is enabled")
	}

	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
