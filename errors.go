package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// TextCode values surfaced to API clients. Codes identify the failure class
// without exposing the underlying cause.
const (
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeLoginFailed         = "LOGIN_FAILED"
	TextCodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	TextCodeUnauthorized        = "UNAUTHORIZED"
	TextCodeUserInactive        = "USER_INACTIVE"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	TextCodeRegistrationFailed  = "REGISTRATION_FAILED"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
	TextCodeTokenExpired        = "AUTH_TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "AUTH_TOKEN_MALFORMED"
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
)

// ErrInvalidCredentials is returned for a wrong email/password pair. Safe to
// surface: it never distinguishes "unknown email" from "wrong password".
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrLoginFailed masks unexpected failures during login; the cause is logged
// server side only.
var ErrLoginFailed = goerrors.New("login failed", goerrors.CategoryInternal).
	WithTextCode(TextCodeLoginFailed)

// ErrInvalidRefreshToken collapses every refresh failure cause: bad
// signature, malformed structure, expiry, wrong token purpose, or a subject
// that no longer resolves to an active user.
var ErrInvalidRefreshToken = goerrors.New("invalid refresh token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidRefreshToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthorized rejects a request before its handler runs.
var ErrUnauthorized = goerrors.New("missing or invalid authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserInactive rejects tokens whose subject is deactivated or gone. The
// token may still be cryptographically valid; the per-request re-fetch is
// what enforces retroactive invalidation.
var ErrUserInactive = goerrors.New("user is inactive or not found", goerrors.CategoryAuth).
	WithTextCode(TextCodeUserInactive).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated user fails a policy check.
var ErrForbidden = goerrors.New("access denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrDuplicateEmail is the registration conflict error.
var ErrDuplicateEmail = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrRegistrationFailed carries the underlying reason for diagnostics.
var ErrRegistrationFailed = goerrors.New("registration failed", goerrors.CategoryConflict).
	WithTextCode(TextCodeRegistrationFailed).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is the CRUD lookup miss, outside the token flows.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired is the codec-level expiry error. It is collapsed into
// ErrUnauthorized or ErrInvalidRefreshToken before crossing the HTTP
// boundary so expiry cannot be told apart from forgery.
var ErrTokenExpired = goerrors.New("authentication token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, wrong algorithms, purpose
// mismatches, and structural garbage. Same collapsing rule as ErrTokenExpired.
var ErrTokenMalformed = goerrors.New("authentication token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
