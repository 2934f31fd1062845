package identity

import "errors"

// Terminal, user-visible failures. Nothing in this package retries; the
// HTTP and RPC layers map these onto status codes. Login and token
// failures deliberately collapse into the same 401 at the edge so a caller
// cannot learn which check failed.
var (
	// ErrBadRequest covers malformed or missing input, e.g. a zero
	// account id on deletion or an invalid username.
	ErrBadRequest = errors.New("bad request")
	// ErrConflict is a uniqueness violation on email or username.
	ErrConflict = errors.New("already registered")
	// ErrNotVerified means registration was attempted without a live
	// verified-email marker.
	ErrNotVerified = errors.New("email not verified")
	// ErrCodeInvalid means the verification code is wrong or expired.
	ErrCodeInvalid = errors.New("invalid or expired verification code")
	// ErrPasswordMismatch means password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCredentials is a failed login, for unknown email and bad
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is a missing credential or an account that no
	// longer exists behind a valid token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken is a token that failed signature or timing checks.
	ErrInvalidToken = errors.New("invalid authentication token")
	// ErrNotFound is an absent entity on a lookup that requires existence.
	ErrNotFound = errors.New("not found")
)
