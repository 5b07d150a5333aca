package tokengate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tokengate/tokengate/blacklist"
	"github.com/tokengate/tokengate/store"
	"github.com/tokengate/tokengate/token"
)

// Engine is the refresh-token lifecycle facade. It orchestrates the
// durable token store, the Redis blacklist, the token hasher and the
// access-token signer; it holds no locks of its own. The store's
// compare-and-set on revoked_at decides every race.
type Engine struct {
	config   Config
	tokens   store.TokenStore
	users    store.UserDirectory
	hasher   *token.Hasher
	policy   token.Policy
	blocked  Blacklist
	access   AccessIssuer
	verifier CredentialVerifier
	sessions *SessionManager
	audit    *auditDispatcher
	metrics  *Metrics
	now      func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// SessionManager exposes the cap enforcer for hosts that manage logins
// themselves.
func (e *Engine) SessionManager() *SessionManager {
	return e.sessions
}

// Issue mints a fresh token pair for a user whose credentials were
// already verified by the caller. When concurrent login detection is
// enabled, the oldest sessions are evicted first so the cap is never
// exceeded.
func (e *Engine) Issue(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return e.issueFor(ctx, user)
}

// Login verifies email/password and on success issues a token pair.
// Missing users and wrong passwords are indistinguishable to the
// caller.
func (e *Engine) Login(ctx context.Context, email, password string) (TokenPair, error) {
	if e.verifier == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emit(ctx, AuditEvent{
				Timestamp: e.now(),
				EventType: EventLoginFailure,
				IP:        clientIPFromContext(ctx),
				Success:   false,
				Error:     ErrInvalidCredentials.Error(),
				Metadata:  map[string]string{"email": email},
			})
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	ok, err := e.verifier.Verify(password, user.PasswordHash)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{
			Timestamp: e.now(),
			EventType: EventLoginFailure,
			UserID:    user.ID.String(),
			IP:        clientIPFromContext(ctx),
			Success:   false,
			Error:     ErrInvalidCredentials.Error(),
		})
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := e.issueFor(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emit(ctx, AuditEvent{
		Timestamp: e.now(),
		EventType: EventLoginSuccess,
		UserID:    user.ID.String(),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   true,
	})

	return pair, nil
}

func (e *Engine) issueFor(ctx context.Context, user store.User) (TokenPair, error) {
	if e.config.Sessions.ConcurrentLoginDetection {
		evicted, err := e.sessions.EnforceCap(ctx, user.ID, e.config.Sessions.MaxConcurrentSessions)
		if err != nil {
			return TokenPair{}, err
		}
		if evicted > 0 {
			e.emit(ctx, AuditEvent{
				Timestamp: e.now(),
				EventType: EventSessionLimitExceeded,
				UserID:    user.ID.String(),
				Success:   true,
				Metadata:  map[string]string{"evicted": fmt.Sprintf("%d", evicted)},
			})
		}
	}

	now := e.now()
	expiresAt, _ := e.policy.NextExpiry(now, time.Time{})
	return e.mint(ctx, user, now, expiresAt)
}

// mint creates and persists one refresh token and its access token.
// createdAt doubles as the sliding-window anchor on rotation.
func (e *Engine) mint(ctx context.Context, user store.User, createdAt, expiresAt time.Time) (TokenPair, error) {
	raw := token.NewRawValue()
	rec := token.New(user.ID, e.hasher.Hash(raw), createdAt, expiresAt,
		clientIPFromContext(ctx), userAgentFromContext(ctx))

	access, err := e.access.CreateAccess(user.ID.String(), rec.ID.String(), user.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	if err := e.tokens.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateToken) {
			return TokenPair{}, fmt.Errorf("%w: %v", ErrUnexpected, err)
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	e.metricInc(MetricTokensIssued)
	e.emit(ctx, AuditEvent{
		Timestamp: e.now(),
		EventType: EventTokenCreated,
		UserID:    user.ID.String(),
		TokenID:   rec.ID.String(),
		IP:        rec.IPAddress,
		UserAgent: rec.UserAgent,
		Success:   true,
	})

	return TokenPair{Access: access, Refresh: raw}, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token
// is revoked and blacklisted; presenting an already revoked token
// trips reuse detection, and presenting one from the wrong client
// revokes every active token the user holds.
func (e *Engine) Rotate(ctx context.Context, rawToken string) (TokenPair, error) {
	hashed := e.hasher.Hash(rawToken)

	if e.blacklisted(ctx, hashed) {
		e.metricInc(MetricBlacklistHits)
		e.metricInc(MetricRotateFailures)
		return TokenPair{}, ErrTokenRevoked
	}

	rec, err := e.tokens.GetByHash(ctx, hashed)
	if err != nil {
		e.metricInc(MetricRotateFailures)
		if errors.Is(err, store.ErrTokenNotFound) {
			return TokenPair{}, ErrTokenInvalid
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	now := e.now()
	if rec.IsExpired(now) {
		e.metricInc(MetricRotateFailures)
		return TokenPair{}, ErrTokenExpired
	}

	if rec.IsRevoked() {
		e.metricInc(MetricRotateFailures)
		return TokenPair{}, e.handleReuse(ctx, rec)
	}

	if !e.bindingMatches(ctx, rec) {
		e.metricInc(MetricRotateFailures)
		return TokenPair{}, e.handleTheft(ctx, rec)
	}

	won, err := e.tokens.CompareAndSetRevoked(ctx, rec.ID, now)
	if err != nil {
		e.metricInc(MetricRotateFailures)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !won {
		// A concurrent Rotate of the same value beat us to the CAS.
		// From this caller's perspective the token was already used.
		e.metricInc(MetricRotateFailures)
		return TokenPair{}, e.handleReuse(ctx, rec)
	}

	e.metricInc(MetricTokensRevoked)
	e.emit(ctx, AuditEvent{
		Timestamp: now,
		EventType: EventTokenRevoked,
		UserID:    rec.UserID.String(),
		TokenID:   rec.ID.String(),
		Success:   true,
		Metadata:  map[string]string{"reason": "rotation"},
	})
	e.putBlacklist(ctx, rec)

	user, err := e.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// The anchor of the sliding window is the previous record's
	// CreatedAt; keeping it on the new record bounds chained rotations
	// by the max lifetime.
	expiresAt, anchor := e.policy.NextExpiry(now, rec.CreatedAt)
	pair, err := e.mint(ctx, user, anchor, expiresAt)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricTokensRotated)
	e.emit(ctx, AuditEvent{
		Timestamp: e.now(),
		EventType: EventTokenRefreshed,
		UserID:    rec.UserID.String(),
		TokenID:   rec.ID.String(),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   true,
	})

	return pair, nil
}

// Revoke invalidates a refresh token on logout. Revoking an already
// revoked token is treated as a benign double logout, not as reuse.
func (e *Engine) Revoke(ctx context.Context, rawToken string) error {
	hashed := e.hasher.Hash(rawToken)

	if e.blacklisted(ctx, hashed) {
		e.metricInc(MetricBlacklistHits)
		return ErrTokenRevoked
	}

	rec, err := e.tokens.GetByHash(ctx, hashed)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	now := e.now()
	if rec.IsExpired(now) {
		return ErrTokenExpired
	}
	if rec.IsRevoked() {
		return ErrTokenRevoked
	}
	if !e.bindingMatches(ctx, rec) {
		return ErrTokenInvalid
	}

	won, err := e.tokens.CompareAndSetRevoked(ctx, rec.ID, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !won {
		return ErrTokenRevoked
	}

	e.metricInc(MetricTokensRevoked)
	e.putBlacklist(ctx, rec)
	e.emit(ctx, AuditEvent{
		Timestamp: now,
		EventType: EventTokenRevoked,
		UserID:    rec.UserID.String(),
		TokenID:   rec.ID.String(),
		IP:        clientIPFromContext(ctx),
		Success:   true,
		Metadata:  map[string]string{"reason": "logout"},
	})

	return nil
}

// Sessions lists the user's active sessions, newest first.
func (e *Engine) Sessions(ctx context.Context, userID uuid.UUID) ([]SessionInfo, error) {
	active, err := e.tokens.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	sessions := make([]SessionInfo, 0, len(active))
	for i := len(active) - 1; i >= 0; i-- {
		t := active[i]
		sessions = append(sessions, SessionInfo{
			SessionID: t.ID.String(),
			CreatedAt: t.CreatedAt,
			IPAddress: t.IPAddress,
			UserAgent: t.UserAgent,
			IsActive:  true,
		})
	}

	return sessions, nil
}

// handleReuse is the response to a revoked token being presented
// again: blacklist it so the next replay is rejected without a store
// read, and raise an alarm. With reuse detection disabled the caller
// just learns the token is revoked.
func (e *Engine) handleReuse(ctx context.Context, rec token.RefreshToken) error {
	if !e.config.Security.ReuseDetection {
		return ErrTokenRevoked
	}

	e.metricInc(MetricReuseDetected)
	e.putBlacklist(ctx, rec)
	e.emit(ctx, AuditEvent{
		Timestamp: e.now(),
		EventType: EventSuspiciousActivity,
		UserID:    rec.UserID.String(),
		TokenID:   rec.ID.String(),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   false,
		Error:     "revoked token replayed",
	})

	return ErrTokenRevoked
}

// handleTheft is the response to a valid token presented from the
// wrong client: assume the value leaked and close every session the
// user has.
func (e *Engine) handleTheft(ctx context.Context, rec token.RefreshToken) error {
	e.metricInc(MetricTheftDetected)
	e.emit(ctx, AuditEvent{
		Timestamp: e.now(),
		EventType: EventSuspiciousActivity,
		UserID:    rec.UserID.String(),
		TokenID:   rec.ID.String(),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   false,
		Error:     "client binding mismatch",
		Metadata: map[string]string{
			"bound_ip":         rec.IPAddress,
			"bound_user_agent": rec.UserAgent,
		},
	})

	active, err := e.tokens.ActiveByUser(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	now := e.now()
	for _, t := range active {
		won, err := e.tokens.CompareAndSetRevoked(ctx, t.ID, now)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if !won {
			continue
		}

		e.metricInc(MetricTokensRevoked)
		e.putBlacklist(ctx, t)
		e.emit(ctx, AuditEvent{
			Timestamp: now,
			EventType: EventTokenRevoked,
			UserID:    t.UserID.String(),
			TokenID:   t.ID.String(),
			Success:   true,
			Metadata:  map[string]string{"reason": "breach_containment"},
		})
	}

	return ErrTokenInvalid
}

// bindingMatches compares the token's recorded client against the
// caller's context values, per the configured binding flags.
func (e *Engine) bindingMatches(ctx context.Context, rec token.RefreshToken) bool {
	if e.config.Security.IPBinding && rec.IPAddress != clientIPFromContext(ctx) {
		return false
	}
	if e.config.Security.UserAgentBinding && rec.UserAgent != userAgentFromContext(ctx) {
		return false
	}
	return true
}

// blacklisted consults the fast-reject index. The index is not
// authoritative, so lookup failures fall through to the store.
func (e *Engine) blacklisted(ctx context.Context, hashed string) bool {
	if e.blocked == nil {
		return false
	}

	found, err := e.blocked.Exists(ctx, hashed)
	if err != nil {
		log.Printf("tokengate: blacklist lookup failed: %v", err)
		return false
	}
	return found
}

func (e *Engine) putBlacklist(ctx context.Context, rec token.RefreshToken) {
	if e.blocked == nil {
		return
	}

	entry := blacklist.Entry{
		UserID:        rec.UserID,
		BlacklistedAt: e.now(),
		ExpiresAt:     rec.ExpiresAt,
	}
	if err := e.blocked.Put(ctx, rec.HashedToken, entry); err != nil {
		log.Printf("tokengate: blacklist write failed for token %s: %v", rec.ID, err)
		return
	}

	e.emit(ctx, AuditEvent{
		Timestamp: e.now(),
		EventType: EventTokenBlacklisted,
		UserID:    rec.UserID.String(),
		TokenID:   rec.ID.String(),
		Success:   true,
	})
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
