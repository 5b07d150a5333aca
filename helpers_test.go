package tokengate

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tokengate/tokengate/store"
	"github.com/tokengate/tokengate/token"
)

// fakeClock lets tests move the engine through token lifetimes without
// sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memTokenStore is an in-memory store.TokenStore with the same CAS and
// ordering semantics as the postgres implementation.
type memTokenStore struct {
	mu     sync.Mutex
	byHash map[string]*token.RefreshToken
	byID   map[uuid.UUID]*token.RefreshToken
	now    func() time.Time
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{
		byHash: make(map[string]*token.RefreshToken),
		byID:   make(map[uuid.UUID]*token.RefreshToken),
		now:    time.Now,
	}
}

func (m *memTokenStore) GetByHash(_ context.Context, hashedToken string) (token.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byHash[hashedToken]
	if !ok {
		return token.RefreshToken{}, store.ErrTokenNotFound
	}
	return *rec, nil
}

func (m *memTokenStore) Insert(_ context.Context, t token.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byHash[t.HashedToken]; ok {
		return store.ErrDuplicateToken
	}
	rec := t
	m.byHash[t.HashedToken] = &rec
	m.byID[t.ID] = &rec
	return nil
}

func (m *memTokenStore) CompareAndSetRevoked(_ context.Context, id uuid.UUID, revokedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok || rec.RevokedAt != nil {
		return false, nil
	}
	at := revokedAt
	rec.RevokedAt = &at
	return true, nil
}

func (m *memTokenStore) ActiveByUser(_ context.Context, userID uuid.UUID) ([]token.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var active []token.RefreshToken
	for _, rec := range m.byID {
		if rec.UserID == userID && rec.IsActive(now) {
			active = append(active, *rec)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return bytes.Compare(active[i].ID[:], active[j].ID[:]) < 0
	})
	return active, nil
}

// memUserDirectory is an in-memory store.UserDirectory.
type memUserDirectory struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]store.User
	byEmail map[string]store.User
}

func newMemUserDirectory() *memUserDirectory {
	return &memUserDirectory{
		byID:    make(map[uuid.UUID]store.User),
		byEmail: make(map[string]store.User),
	}
}

func (m *memUserDirectory) GetByID(_ context.Context, id uuid.UUID) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserDirectory) GetByEmail(_ context.Context, email string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byEmail[email]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserDirectory) Save(_ context.Context, u store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

// plainVerifier treats the stored hash as the plaintext password.
// Argon2 rounds would dominate test runtime for no coverage gain here.
type plainVerifier struct{}

func (plainVerifier) Verify(password, encodedHash string) (bool, error) {
	return password == encodedHash, nil
}

// staticIssuer stamps access tokens without signing.
type staticIssuer struct{}

func (staticIssuer) CreateAccess(_, sid, _ string) (string, error) {
	return "access." + sid, nil
}

// recordSink captures audit events for assertions. Call env.drainAudit
// before reading; delivery is asynchronous.
type recordSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordSink) byType(eventType string) []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []AuditEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	engine *Engine
	tokens *memTokenStore
	users  *memUserDirectory
	sink   *recordSink
	clock  *fakeClock
	alice  store.User
}

const alicePassword = "correct-password-123"

// newTestEnv builds an engine over in-memory stores and, when
// withBlacklist is set, a miniredis-backed blacklist. mutate may be nil.
func newTestEnv(t *testing.T, withBlacklist bool, mutate func(*Config)) *testEnv {
	t.Helper()

	// Blacklist TTLs are computed against the wall clock, so the fake
	// clock starts at the present rather than a fixed date.
	clock := newFakeClock(time.Now().UTC().Truncate(time.Second))
	tokens := newMemTokenStore()
	tokens.now = clock.Now
	users := newMemUserDirectory()
	sink := &recordSink{}

	cfg := DefaultConfig()
	cfg.Hasher.Pepper = []byte("0123456789abcdef0123456789abcdef")
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("test-signing-key-32-bytes-long!!")
	if mutate != nil {
		mutate(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithTokenStore(tokens).
		WithUserDirectory(users).
		WithAccessIssuer(staticIssuer{}).
		WithCredentialVerifier(plainVerifier{}).
		WithAuditSink(sink)

	if withBlacklist {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		b = b.WithRedis(rdb)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine.now = clock.Now
	engine.sessions.now = clock.Now
	t.Cleanup(engine.Close)

	alice := store.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: alicePassword,
		FullName:     "Alice Liddell",
		CreatedAt:    clock.Now(),
	}
	if err := users.Save(context.Background(), alice); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	return &testEnv{
		engine: engine,
		tokens: tokens,
		users:  users,
		sink:   sink,
		clock:  clock,
		alice:  alice,
	}
}

// drainAudit closes the dispatcher so every emitted event has reached
// the sink. The engine stays usable; events emitted afterwards are lost.
func (env *testEnv) drainAudit() {
	env.engine.Close()
}

// clientCtx attaches the default test client binding.
func clientCtx() context.Context {
	ctx := WithClientIP(context.Background(), "203.0.113.7")
	return WithUserAgent(ctx, "test-agent/1.0")
}

func (env *testEnv) login(t *testing.T, ctx context.Context) TokenPair {
	t.Helper()

	pair, err := env.engine.Login(ctx, env.alice.Email, alicePassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return pair
}
