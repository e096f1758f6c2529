package tokenware

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExtractors(t *testing.T) {
	tests := []struct {
		name   string
		lookup string
		count  int
	}{
		{"single header source", "header:Authorization", 1},
		{"header then body fallback", "header:Authorization,body:refresh_token", 2},
		{"body source", "body:refresh_token", 1},
		{"query source", "query:token", 1},
		{"cookie source", "cookie:session", 1},
		{"unknown source is skipped", "form:token", 0},
		{"malformed entry is skipped", "header", 0},
		{"whitespace tolerated", " header : Authorization , body : refresh_token ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractors := GetExtractors(tt.lookup, "Bearer")
			assert.Len(t, extractors, tt.count)
		})
	}
}

func TestExtractRawToken(t *testing.T) {
	t.Run("first extractor with a token wins", func(t *testing.T) {
		extractors := []Extractor{
			func(c router.Context) (string, error) { return "", ErrTokenMissing },
			func(c router.Context) (string, error) { return "token-a", nil },
			func(c router.Context) (string, error) { return "token-b", nil },
		}

		raw, err := extractRawToken(nil, extractors)
		require.NoError(t, err)
		assert.Equal(t, "token-a", raw)
	})

	t.Run("no extractor succeeding reports a missing token", func(t *testing.T) {
		extractors := []Extractor{
			func(c router.Context) (string, error) { return "", nil },
		}

		raw, err := extractRawToken(nil, extractors)
		assert.Empty(t, raw)
		assert.ErrorIs(t, err, ErrTokenMissing)
	})

	t.Run("empty chain reports a missing token", func(t *testing.T) {
		raw, err := extractRawToken(nil, nil)
		assert.Empty(t, raw)
		assert.ErrorIs(t, err, ErrTokenMissing)
	})
}

func TestGetDefaultConfig(t *testing.T) {
	validator := stubValidator{}

	t.Run("applies defaults", func(t *testing.T) {
		cfg := getDefaultConfig(Config{TokenValidator: validator})

		assert.Equal(t, "claims", cfg.ContextKey)
		assert.Equal(t, "current_user", cfg.UserContextKey)
		assert.Equal(t, "Bearer", cfg.AuthScheme)
		assert.Equal(t, defaultTokenLookup, cfg.TokenLookup)
		assert.NotNil(t, cfg.SuccessHandler)
		assert.NotNil(t, cfg.ErrorHandler)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := getDefaultConfig(Config{
			TokenValidator: validator,
			TokenLookup:    "body:refresh_token",
			ContextKey:     "jwt",
		})

		assert.Equal(t, "jwt", cfg.ContextKey)
		assert.Equal(t, "body:refresh_token", cfg.TokenLookup)
	})

	t.Run("panics without a validator", func(t *testing.T) {
		assert.Panics(t, func() {
			getDefaultConfig(Config{})
		})
	})
}

type stubValidator struct{}

func (stubValidator) Validate(string) (AuthClaims, error) {
	return nil, ErrTokenMissing
}
