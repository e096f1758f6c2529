// Package tokenware is the per-request token gate. It extracts a bearer
// token from the configured source, verifies it through the injected
// validator, re-resolves the current user from the store, and attaches both
// claims and user to the request before any handler runs.
package tokenware

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup     = "header:" + router.HeaderAuthorization
	ErrTokenMissing        = errors.New("missing or malformed bearer token")
	ErrUserResolutionError = errors.New("user is inactive or not found")
)

// TokenValidator mirrors the auth package token service without importing it
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims is the validated claims surface the middleware needs
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	HasRole(role string) bool
}

// UserResolver re-fetches the request's user from the store. Returning an
// error rejects the request: a token stays cryptographically valid until
// expiry, so this per-request resolution is what retroactively invalidates
// tokens for deactivated or deleted accounts.
type UserResolver func(ctx context.Context, claims AuthClaims) (any, error)

type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// TokenValidator is required
	TokenValidator TokenValidator

	// TokenLookup supports "header:<name>" and "body:<json field>" sources,
	// comma separated, first match wins
	TokenLookup string
	AuthScheme  string

	// ContextKey is where validated claims land in the router context
	ContextKey string
	// UserContextKey is where the resolved user lands when UserResolver is set
	UserContextKey string

	// UserResolver is invoked after validation; required for guarded routes
	UserResolver UserResolver

	// RequiredRole rejects claims that do not carry the role
	RequiredRole string

	// ContextEnricher propagates claims and user into the standard context
	ContextEnricher func(ctx context.Context, claims AuthClaims, user any) context.Context
}

// New builds the middleware from the given config
func New(config ...Config) router.MiddlewareFunc {
	cfg := getDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := extractRawToken(ctx, extractors)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if cfg.RequiredRole != "" && !claims.HasRole(cfg.RequiredRole) {
				return cfg.ErrorHandler(ctx, errors.New("required role not present"))
			}

			var user any
			if cfg.UserResolver != nil {
				user, err = cfg.UserResolver(ctx.Context(), claims)
				if err != nil {
					return cfg.ErrorHandler(ctx, ErrUserResolutionError)
				}
				ctx.Locals(cfg.UserContextKey, user)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), claims, user))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func getDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("tokenware: TokenValidator is required")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "claims"
	}

	if cfg.UserContextKey == "" {
		cfg.UserContextKey = "current_user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// Extractor pulls a raw token out of the request
type Extractor func(c router.Context) (string, error)

func (cfg *Config) getExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// GetExtractors parses a lookup string like
// "header:Authorization,body:refresh_token" into an extractor chain
func GetExtractors(tokenLookup string, authSchemes ...string) []Extractor {
	extractors := make([]Extractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		source := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "body":
			extractors = append(extractors, tokenFromBody(name))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	return extractors
}

func extractRawToken(ctx router.Context, extractors []Extractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	if raw == "" && err == nil {
		err = ErrTokenMissing
	}

	return raw, err
}

// tokenFromHeader returns a function that extracts the token from the
// request header, honoring the auth scheme prefix.
func tokenFromHeader(header string, authScheme string) Extractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		authScheme = strings.TrimSpace(authScheme)
		l := len(authScheme)
		if l == 0 {
			return strings.TrimSpace(a), nil
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissing
	}
}

// tokenFromBody returns a function that extracts the token from a JSON body
// field. The refresh route presents its token this way.
func tokenFromBody(field string) Extractor {
	return func(c router.Context) (string, error) {
		payload := map[string]json.RawMessage{}
		if err := c.Bind(&payload); err != nil {
			return "", ErrTokenMissing
		}

		raw, ok := payload[field]
		if !ok {
			return "", ErrTokenMissing
		}

		var token string
		if err := json.Unmarshal(raw, &token); err != nil || token == "" {
			return "", ErrTokenMissing
		}

		return token, nil
	}
}

// tokenFromQuery returns a function that extracts the token from the query string.
func tokenFromQuery(param string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts the token from the named cookie.
func tokenFromCookie(name string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}
