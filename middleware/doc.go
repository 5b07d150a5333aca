// Package middleware exposes HTTP adapters for tokengate: a Bearer-token
// guard over access-token verification and a client-info binder that
// records the caller's IP and User-Agent on the request context.
//
// # Guards
//
//   - [Guard] reads the Authorization header, verifies the access token
//     and injects the claims into the request context.
//   - [ClientInfo] attaches the client IP and User-Agent so the engine
//     can bind issued refresh tokens to the caller. Mount it on every
//     route that calls Login, Rotate or Revoke.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into engine and parser calls.
// It makes no authorization decisions of its own.
//
// # What this package must NOT do
//
//   - Create tokens.
//   - Touch Redis or the database.
package middleware
