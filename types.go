package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Email() string
	Role() string
}

// Authenticator exposes the credential and token transactions
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Register(ctx context.Context, msg RegisterUserMessage) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
}

// Config holds auth options. Access and refresh tokens are configured
// independently; sharing a secret between the two defeats the isolation the
// refresh flow relies on and is rejected at startup.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetRefreshSigningKey() string
	GetRefreshTokenExpiration() time.Duration
	GetSigningMethod() string
	GetContextKey() string
	GetAuthScheme() string
	GetTokenLookup() string
	GetRefreshTokenField() string
	GetIssuer() string
	GetAudience() []string
}

// IdentityProvider ensures we have a store to verify credentials against.
// Both methods return the full stored record; callers sanitize before it
// crosses the outward boundary.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
