package tokengate

import "errors"

var (
	// ErrTokenInvalid is returned for unknown raw values and for tokens
	// whose client binding does not match the caller.
	ErrTokenInvalid = errors.New("invalid refresh token")
	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("refresh token expired")
	// ErrTokenRevoked is returned when the token was already revoked,
	// including the reuse-detection path.
	ErrTokenRevoked = errors.New("refresh token revoked")
	// ErrStorageUnavailable wraps transient store or cache faults.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnexpected wraps faults that indicate a bug rather than input.
	ErrUnexpected = errors.New("unexpected internal error")
	// ErrInvalidCredentials is returned on email/password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is returned by the builder when a required
	// collaborator is missing.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorCode maps an engine error to a stable dotted code suitable for
// API responses. Unknown errors map to the generic unexpected code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTokenInvalid):
		return "refresh_token.invalid_token"
	case errors.Is(err, ErrTokenExpired):
		return "refresh_token.token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "refresh_token.token_revoked"
	case errors.Is(err, ErrInvalidCredentials):
		return "user.invalid_credentials"
	case errors.Is(err, ErrUserNotFound):
		return "user.not_found"
	case errors.Is(err, ErrStorageUnavailable):
		return "general.storage_error"
	default:
		return "general.unexpected_error"
	}
}
