package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	auth "github.com/behrooz2011/users-api"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuther(store *MockUserStore, registry *MockRegistry) *auth.Auther {
	provider := auth.NewUserProvider(store)
	return auth.NewAuthenticator(
		provider,
		registry,
		newAccessService(time.Hour),
		newRefreshService(24*time.Hour),
	).WithLogger(noopLogger{})
}

func TestAuther_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("returns both tokens and a sanitized user", func(t *testing.T) {
		store := &MockUserStore{}
		user := testUser("correct-horse")
		store.On("GetByIdentifier", ctx, "ada@example.com").Return(user, nil)

		auther := newTestAuther(store, &MockRegistry{})

		result, err := auther.Login(ctx, "ada@example.com", "correct-horse")
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.NotEqual(t, result.AccessToken, result.RefreshToken)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Empty(t, result.User.PasswordHash)

		claims, err := auther.AccessTokens().Validate(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject())
		assert.Equal(t, auth.PurposeAccess, claims.Purpose())

		refreshClaims, err := auther.RefreshTokens().Validate(result.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, auth.PurposeRefresh, refreshClaims.Purpose())

		store.AssertExpectations(t)
	})

	t.Run("wrong password yields invalid credentials", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByIdentifier", ctx, "ada@example.com").Return(testUser("correct-horse"), nil)

		auther := newTestAuther(store, &MockRegistry{})

		result, err := auther.Login(ctx, "ada@example.com", "wrong-password")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown identifier yields the same invalid credentials", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByIdentifier", ctx, "nobody@example.com").Return(nil, auth.ErrUserNotFound)

		auther := newTestAuther(store, &MockRegistry{})

		result, err := auther.Login(ctx, "nobody@example.com", "whatever")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive account is rejected before password check", func(t *testing.T) {
		store := &MockUserStore{}
		user := testUser("correct-horse")
		user.IsActive = false
		store.On("GetByIdentifier", ctx, "ada@example.com").Return(user, nil)

		auther := newTestAuther(store, &MockRegistry{})

		result, err := auther.Login(ctx, "ada@example.com", "correct-horse")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrUserInactive)
	})

	t.Run("store failure is masked as login failed", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByIdentifier", ctx, "ada@example.com").Return(nil, errors.New("connection reset"))

		auther := newTestAuther(store, &MockRegistry{})

		result, err := auther.Login(ctx, "ada@example.com", "correct-horse")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrLoginFailed)
		assert.NotContains(t, err.Error(), "connection reset")
	})
}

func TestAuther_Register(t *testing.T) {
	ctx := context.Background()

	msg := auth.RegisterUserMessage{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "correct-horse",
		Role:      auth.RoleUser,
	}

	t.Run("issues a token pair for the new account", func(t *testing.T) {
		registry := &MockRegistry{}
		registry.On("RegisterUser", ctx, msg).Return(testUser("correct-horse"), nil)

		auther := newTestAuther(&MockUserStore{}, registry)

		result, err := auther.Register(ctx, msg)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Empty(t, result.User.PasswordHash)

		registry.AssertExpectations(t)
	})

	t.Run("duplicate email keeps its identity", func(t *testing.T) {
		registry := &MockRegistry{}
		registry.On("RegisterUser", ctx, msg).Return(nil, auth.ErrDuplicateEmail)

		auther := newTestAuther(&MockUserStore{}, registry)

		result, err := auther.Register(ctx, msg)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("other store failures surface as registration failed", func(t *testing.T) {
		registry := &MockRegistry{}
		registry.On("RegisterUser", ctx, msg).Return(nil, errors.New("disk full"))

		auther := newTestAuther(&MockUserStore{}, registry)

		result, err := auther.Register(ctx, msg)
		assert.Nil(t, result)

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, auth.TextCodeRegistrationFailed, rich.TextCode)
	})
}

func TestAuther_Refresh(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, store *MockUserStore, user *auth.User) (*auth.Auther, string) {
		t.Helper()
		store.On("GetByIdentifier", ctx, user.Email).Return(user, nil)
		auther := newTestAuther(store, &MockRegistry{})
		result, err := auther.Login(ctx, user.Email, "correct-horse")
		require.NoError(t, err)
		return auther, result.RefreshToken
	}

	t.Run("rotates the pair for an active subject", func(t *testing.T) {
		store := &MockUserStore{}
		user := testUser("correct-horse")
		auther, refreshToken := login(t, store, user)

		store.On("GetUser", ctx, user.ID).Return(user, nil)

		result, err := auther.Refresh(ctx, refreshToken)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Empty(t, result.User.PasswordHash)

		claims, err := auther.RefreshTokens().Validate(result.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, auth.PurposeRefresh, claims.Purpose())
	})

	t.Run("access token is not accepted as a refresh token", func(t *testing.T) {
		store := &MockUserStore{}
		user := testUser("correct-horse")
		store.On("GetByIdentifier", ctx, user.Email).Return(user, nil)

		auther := newTestAuther(store, &MockRegistry{})
		loginResult, err := auther.Login(ctx, user.Email, "correct-horse")
		require.NoError(t, err)

		result, err := auther.Refresh(ctx, loginResult.AccessToken)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("vanished subject collapses to invalid refresh token", func(t *testing.T) {
		store := &MockUserStore{}
		user := testUser("correct-horse")
		auther, refreshToken := login(t, store, user)

		store.On("GetUser", ctx, user.ID).Return(nil, auth.ErrUserNotFound)

		result, err := auther.Refresh(ctx, refreshToken)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("deactivated subject collapses to invalid refresh token", func(t *testing.T) {
		store := &MockUserStore{}
		user := testUser("correct-horse")
		auther, refreshToken := login(t, store, user)

		deactivated := *user
		deactivated.IsActive = false
		store.On("GetUser", ctx, user.ID).Return(&deactivated, nil)

		result, err := auther.Refresh(ctx, refreshToken)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("garbage token collapses to invalid refresh token", func(t *testing.T) {
		auther := newTestAuther(&MockUserStore{}, &MockRegistry{})

		result, err := auther.Refresh(ctx, "not-a-token")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("expired refresh token collapses to invalid refresh token", func(t *testing.T) {
		store := &MockUserStore{}
		user := testUser("correct-horse")

		provider := auth.NewUserProvider(store)
		auther := auth.NewAuthenticator(
			provider,
			&MockRegistry{},
			newAccessService(time.Hour),
			newRefreshService(-time.Minute),
		).WithLogger(noopLogger{})

		expired, err := auther.RefreshTokens().Generate(auth.IdentityFromUser(user))
		require.NoError(t, err)

		result, err := auther.Refresh(ctx, expired)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})
}
