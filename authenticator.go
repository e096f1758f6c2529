package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RegisterUserMessage carries a new account request into the registrar
type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// AccountRegistrerer is the interface we need to handle new user
// registrations. The store owns password hashing and the email uniqueness
// check; registration is its atomic check-and-insert.
type AccountRegistrerer interface {
	RegisterUser(ctx context.Context, msg RegisterUserMessage) (*User, error)
}

// Auther orchestrates login, registration, and the refresh flow. It is the
// only component with business level policy; the token services below it are
// pure codecs and the provider is a pure verifier.
type Auther struct {
	provider      IdentityProvider
	registry      AccountRegistrerer
	accessTokens  TokenService
	refreshTokens TokenService
	logger        Logger
}

// NewAuthenticator returns a new Auther wired to the given provider,
// registrar, and codec pair. The two services must be configured with
// distinct secrets; that invariant is enforced by config validation before
// this constructor ever runs.
func NewAuthenticator(provider IdentityProvider, registry AccountRegistrerer, access, refresh TokenService) *Auther {
	return &Auther{
		provider:      provider,
		registry:      registry,
		accessTokens:  access,
		refreshTokens: refresh,
		logger:        defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// AccessTokens returns the access token service used by this Auther
func (s *Auther) AccessTokens() TokenService {
	return s.accessTokens
}

// RefreshTokens returns the refresh token service used by this Auther
func (s *Auther) RefreshTokens() TokenService {
	return s.refreshTokens
}

// Login verifies the email/password pair and mints a fresh token pair.
// Credential and inactive-account failures propagate with their identity;
// anything unexpected is logged and masked as a generic login failure.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	user, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUserInactive) {
			return nil, err
		}
		s.logger.Error("Login verify identity error", "error", err)
		return nil, ErrLoginFailed
	}

	accessToken, refreshToken, err := s.generateTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("Login token generation error", "error", err)
		return nil, ErrLoginFailed
	}

	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Register delegates account creation to the store and, on success, issues a
// token pair exactly as login does. A duplicate email keeps its specific
// identity; other creation failures surface as a registration failure
// carrying the underlying reason.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*AuthResult, error) {
	user, err := s.registry.RegisterUser(ctx, msg)
	if err != nil {
		s.logger.Error("Register create user error", "error", err, "email", msg.Email)
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryConflict, "registration failed").
			WithTextCode(TextCodeRegistrationFailed)
	}

	accessToken, refreshToken, err := s.generateTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("Register token generation error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "registration failed").
			WithTextCode(TextCodeRegistrationFailed)
	}

	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh decodes the presented refresh token, re-resolves the subject, and
// rotates the pair. Every failure mode answers with the same invalid
// refresh token error: decode failures, a subject that no longer exists, and
// a deactivated account are deliberately indistinguishable. The old refresh
// token is not blacklisted; it lapses at its own expiry.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.refreshTokens.Validate(refreshToken)
	if err != nil {
		s.logger.Error("Refresh token validation failed", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.resolveSubject(ctx, claims.Subject())
	if err != nil {
		s.logger.Error("Refresh subject resolution failed", "error", err, "subject", claims.Subject())
		return nil, ErrInvalidRefreshToken
	}

	accessToken, newRefreshToken, err := s.generateTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("Refresh token generation error", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (s *Auther) resolveSubject(ctx context.Context, subject string) (*User, error) {
	if _, err := uuid.Parse(subject); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid token subject")
	}

	user, err := s.provider.FindUserByID(ctx, subject)
	if err != nil {
		return nil, err
	}

	if user == nil || !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

// generateTokenPair signs the access and refresh tokens concurrently. The
// two signings share no data; either failure aborts the pair so a partial
// result is never returned.
func (s *Auther) generateTokenPair(ctx context.Context, user *User) (string, string, error) {
	identity := IdentityFromUser(user)

	var accessToken, refreshToken string

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		token, err := s.accessTokens.Generate(identity)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to sign access token")
		}
		accessToken = token
		return nil
	})
	g.Go(func() error {
		token, err := s.refreshTokens.Generate(identity)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to sign refresh token")
		}
		refreshToken = token
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

var _ Authenticator = (*Auther)(nil)
