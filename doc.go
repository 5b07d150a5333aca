// Package tokengate is a refresh-token lifecycle engine: opaque
// one-time refresh tokens with rotation, reuse detection, client
// binding, sliding-window expiration, and a per-user concurrent
// session cap.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// tokengate is the public surface. It exposes [Engine], [Builder],
// [Config] and value types (TokenPair, SessionInfo, MetricsSnapshot).
// Persistence lives behind the store contracts; the Redis blacklist is
// a non-authoritative fast path over the durable revocation state.
//
// # Concurrency contract
//
// The engine holds no locks. The durable store's compare-and-set on
// revoked_at is the single linearization point: of any number of
// concurrent rotations of the same token, exactly one wins, and every
// loser observes the token as already used.
package tokengate
