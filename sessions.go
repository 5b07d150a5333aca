package tokengate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tokengate/tokengate/blacklist"
	"github.com/tokengate/tokengate/store"
	"github.com/tokengate/tokengate/token"
)

// SessionManager enforces the per-user concurrent session cap over the
// durable token store. Each active refresh token counts as one session.
type SessionManager struct {
	tokens    store.TokenStore
	blacklist Blacklist
	audit     *auditDispatcher
	metrics   *Metrics
	now       func() time.Time
}

// NewSessionManager builds a manager over the given collaborators.
// blacklist may be nil; eviction then skips the fast-reject index.
func NewSessionManager(tokens store.TokenStore, bl Blacklist) *SessionManager {
	return &SessionManager{
		tokens:    tokens,
		blacklist: bl,
		now:       time.Now,
	}
}

// CountActive returns the number of unexpired, unrevoked tokens held by
// the user.
func (m *SessionManager) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	active, err := m.tokens.ActiveByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return len(active), nil
}

// EnforceCap makes room for one new session: while the user holds max
// or more active tokens, the oldest (by CreatedAt, ties by ID) are
// revoked and blacklisted until one slot is free. Returns how many
// sessions were evicted. Calling it again without a new login is a
// no-op.
func (m *SessionManager) EnforceCap(ctx context.Context, userID uuid.UUID, max int) (int, error) {
	if max < 1 {
		return 0, nil
	}

	active, err := m.tokens.ActiveByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if len(active) < max {
		return 0, nil
	}

	// The store returns oldest first, so the eviction candidates are a
	// prefix of the listing.
	evicted := 0
	for _, t := range active[:len(active)-max+1] {
		won, err := m.tokens.CompareAndSetRevoked(ctx, t.ID, m.now())
		if err != nil {
			return evicted, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if !won {
			// A concurrent rotation or revoke already closed this
			// session; it no longer counts against the cap.
			continue
		}

		m.putBlacklist(ctx, t)
		m.metrics.Inc(MetricSessionsEvicted)
		m.metrics.Inc(MetricTokensRevoked)
		m.audit.Emit(ctx, AuditEvent{
			Timestamp: m.now(),
			EventType: EventTokenRevoked,
			UserID:    t.UserID.String(),
			TokenID:   t.ID.String(),
			Success:   true,
			Metadata:  map[string]string{"reason": "session_cap"},
		})
		evicted++
	}

	return evicted, nil
}

// putBlacklist writes to the fast-reject index and logs on failure.
// The durable revocation already happened, so callers never see an
// error from here.
func (m *SessionManager) putBlacklist(ctx context.Context, t token.RefreshToken) {
	if m.blacklist == nil {
		return
	}

	entry := blacklist.Entry{
		UserID:        t.UserID,
		BlacklistedAt: m.now(),
		ExpiresAt:     t.ExpiresAt,
	}
	if err := m.blacklist.Put(ctx, t.HashedToken, entry); err != nil {
		log.Printf("tokengate: blacklist write failed for token %s: %v", t.ID, err)
		return
	}

	m.audit.Emit(ctx, AuditEvent{
		Timestamp: m.now(),
		EventType: EventTokenBlacklisted,
		UserID:    t.UserID.String(),
		TokenID:   t.ID.String(),
		Success:   true,
	})
}
