package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPurpose tags a token as access or refresh. Each purpose is signed
// under its own secret; the tag is a second lock so a token cannot cross
// flows even if the secrets were ever misconfigured to match.
type TokenPurpose string

const (
	// PurposeAccess authorizes ordinary API requests
	PurposeAccess TokenPurpose = "access"
	// PurposeRefresh is accepted only by the refresh flow
	PurposeRefresh TokenPurpose = "refresh"
)

// AuthClaims represents validated token claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	Purpose() TokenPurpose
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID          string       `json:"uid,omitempty"`
	UserEmail    string       `json:"email,omitempty"`
	UserRole     string       `json:"role,omitempty"`
	TokenPurpose TokenPurpose `json:"purpose,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// NewClaims builds the signing payload for an identity. Issued-at and expiry
// are stamped by the token service at sign time.
func NewClaims(identity Identity, purpose TokenPurpose) *JWTClaims {
	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: identity.ID(),
		},
		UID:          identity.ID(),
		UserEmail:    identity.Email(),
		UserRole:     identity.Role(),
		TokenPurpose: purpose,
	}
}

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the role claim
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Purpose returns the token purpose tag
func (c *JWTClaims) Purpose() TokenPurpose {
	return c.TokenPurpose
}

// HasRole checks if the claims carry a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(rc *jwt.RegisteredClaims) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
}
