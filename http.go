package auth

import (
	"context"

	"github.com/behrooz2011/users-api/middleware/tokenware"

	"github.com/goliatone/go-router"
)

// RouteAuthenticator builds the two request guards. Both share one
// algorithm: extract the token, verify it under the secret matching the
// route's purpose, re-fetch the user, and reject before the handler when the
// account is missing or inactive.
type RouteAuthenticator struct {
	provider IdentityProvider
	cfg      Config
	access   TokenService
	refresh  TokenService
	Logger   Logger
}

// NewRouteAuthenticator wires the guards to the provider and codec pair
func NewRouteAuthenticator(provider IdentityProvider, auther *Auther, cfg Config) *RouteAuthenticator {
	return &RouteAuthenticator{
		provider: provider,
		cfg:      cfg,
		access:   auther.AccessTokens(),
		refresh:  auther.RefreshTokens(),
		Logger:   defLogger{},
	}
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// ProtectedRoute guards ordinary API routes with the access token. Every
// rejection cause collapses to the same 401; the specific reason is only
// logged.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return tokenware.New(tokenware.Config{
		TokenValidator: claimsValidator{a.access},
		TokenLookup:    a.cfg.GetTokenLookup(),
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		UserContextKey: a.userContextKey(),
		UserResolver:   a.resolveUser,
		ContextEnricher: enrichRequestContext,
		ErrorHandler: func(ctx router.Context, err error) error {
			a.Logger.Info("access token rejected", "error", err, "path", ctx.OriginalURL())
			return RespondError(ctx, ErrUnauthorized)
		},
	})
}

// RefreshRoute guards the refresh endpoint. The token is presented in the
// request body rather than a header, and verifies under the refresh secret.
func (a *RouteAuthenticator) RefreshRoute() router.MiddlewareFunc {
	return tokenware.New(tokenware.Config{
		TokenValidator: claimsValidator{a.refresh},
		TokenLookup:    "body:" + a.cfg.GetRefreshTokenField(),
		ContextKey:     a.cfg.GetContextKey(),
		UserContextKey: a.userContextKey(),
		UserResolver:   a.resolveUser,
		ContextEnricher: enrichRequestContext,
		ErrorHandler: func(ctx router.Context, err error) error {
			a.Logger.Info("refresh token rejected", "error", err, "path", ctx.OriginalURL())
			return RespondError(ctx, ErrInvalidRefreshToken)
		},
	})
}

// claimsValidator narrows a TokenService to the claims surface the
// middleware consumes
type claimsValidator struct {
	svc TokenService
}

func (v claimsValidator) Validate(tokenString string) (tokenware.AuthClaims, error) {
	claims, err := v.svc.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// resolveUser is the mandatory per-request re-fetch: it is what makes
// deactivation or deletion take effect against still-unexpired tokens.
func (a *RouteAuthenticator) resolveUser(ctx context.Context, claims tokenware.AuthClaims) (any, error) {
	user, err := a.provider.FindUserByID(ctx, claims.Subject())
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *RouteAuthenticator) userContextKey() string {
	return "current_user"
}

func enrichRequestContext(ctx context.Context, claims tokenware.AuthClaims, user any) context.Context {
	if ac, ok := claims.(AuthClaims); ok {
		ctx = WithClaimsContext(ctx, ac)
	}
	if u, ok := user.(*User); ok {
		ctx = WithContext(ctx, u)
	}
	return ctx
}
