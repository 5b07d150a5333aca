// Package token holds the refresh-token domain model: the RefreshToken
// record and its derived state predicates, the PBKDF2 token hasher used
// to derive store keys, and the pure sliding-window expiry policy.
package token
