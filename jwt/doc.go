// Package jwt issues and verifies the short-lived access tokens that
// pair with a refresh token. Verification is strict: the signing
// algorithm is pinned and issuer and audience are checked when set.
package jwt
