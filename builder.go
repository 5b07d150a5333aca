package tokengate

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tokengate/tokengate/blacklist"
	"github.com/tokengate/tokengate/jwt"
	"github.com/tokengate/tokengate/store"
	"github.com/tokengate/tokengate/token"
)

// Builder wires an [Engine] from a Config and its collaborators. The
// durable stores are required; Redis, the credential verifier and the
// audit sink are optional.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	tokens    store.TokenStore
	users     store.UserDirectory
	blocked   Blacklist
	access    AccessIssuer
	verifier  CredentialVerifier
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. The config is cloned; later
// mutations by the caller do not reach the engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the blacklist.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTokenStore supplies the durable refresh-token store.
func (b *Builder) WithTokenStore(s store.TokenStore) *Builder {
	b.tokens = s
	return b
}

// WithUserDirectory supplies the identity lookup.
func (b *Builder) WithUserDirectory(d store.UserDirectory) *Builder {
	b.users = d
	return b
}

// WithBlacklist overrides the Redis blacklist with a custom
// implementation. Takes precedence over WithRedis.
func (b *Builder) WithBlacklist(bl Blacklist) *Builder {
	b.blocked = bl
	return b
}

// WithAccessIssuer overrides the default jwt-based access signer.
func (b *Builder) WithAccessIssuer(issuer AccessIssuer) *Builder {
	b.access = issuer
	return b
}

// WithCredentialVerifier supplies the password check used by Login.
// Without one, Login returns ErrEngineNotReady; Issue still works.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink supplies the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the engine counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, assembles the collaborators and
// returns the engine. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.tokens == nil {
		return nil, errors.New("token store required")
	}
	if b.users == nil {
		return nil, errors.New("user directory required")
	}

	hasher, err := token.NewHasher(cfg.Hasher.Pepper)
	if err != nil {
		return nil, err
	}

	blocked := b.blocked
	if blocked == nil && b.redis != nil {
		blocked = blacklist.NewStore(b.redis, cfg.Blacklist.Prefix)
	}

	access := b.access
	if access == nil {
		jm, err := jwt.NewManager(jwt.Config{
			AccessTTL:     cfg.JWT.AccessTTL,
			SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
			PublicKey:     cloneBytes(cfg.JWT.PublicKey),
			Issuer:        cfg.JWT.Issuer,
			Audience:      cfg.JWT.Audience,
		})
		if err != nil {
			return nil, err
		}
		access = jm
	}

	engine := &Engine{
		config:   cfg,
		tokens:   b.tokens,
		users:    b.users,
		hasher:   hasher,
		blocked:  blocked,
		access:   access,
		verifier: b.verifier,
		now:      time.Now,
	}
	engine.policy = token.Policy{
		Lifetime:      cfg.Token.Lifetime,
		SlidingWindow: cfg.Token.SlidingExpiration,
		WindowPeriod:  cfg.Token.WindowPeriod,
		MaxLifetime:   cfg.Token.MaxLifetime,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.sessions = &SessionManager{
		tokens:    b.tokens,
		blacklist: blocked,
		audit:     engine.audit,
		metrics:   engine.metrics,
		now:       engine.now,
	}

	b.built = true

	return engine, nil
}
