package identity

import (
	"context"
	"testing"
	"time"

	"github.com/comercio/backend/internal/domain/identity"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/infrastructure/auth"
	"github.com/comercio/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a testify mock of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindNamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, u *identity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func newTestAuthService(users identity.UserRepository) *AuthService {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "backoffice-test",
	})
	return NewAuthService(users, jwtService, auth.NewInMemoryTokenBlacklist(), zap.NewNop())
}

func mustUser(t *testing.T, email, password string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(email, "Test User", password)
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates a new account", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		repo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		resp, err := svc.Register(context.Background(), RegisterRequest{
			Email:    "new@example.com",
			Name:     "New User",
			Password: "s3cret-pass",
		})

		require.NoError(t, err)
		assert.Equal(t, "new@example.com", resp.Email)
		assert.Equal(t, "ACTIVE", resp.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		existing := mustUser(t, "taken@example.com", "s3cret-pass")
		repo.On("FindByEmail", mock.Anything, "taken@example.com").Return(existing, nil)

		_, err := svc.Register(context.Background(), RegisterRequest{
			Email:    "taken@example.com",
			Name:     "Someone",
			Password: "s3cret-pass",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMAIL_TAKEN", domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("returns tokens for valid credentials", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		user := mustUser(t, "owner@example.com", "s3cret-pass")
		repo.On("FindByEmail", mock.Anything, "owner@example.com").Return(user, nil)

		result, err := svc.Login(context.Background(), LoginRequest{
			Email:    "owner@example.com",
			Password: "s3cret-pass",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.Equal(t, user.ID, result.User.ID)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		user := mustUser(t, "owner@example.com", "s3cret-pass")
		repo.On("FindByEmail", mock.Anything, "owner@example.com").Return(user, nil)

		_, err := svc.Login(context.Background(), LoginRequest{
			Email:    "owner@example.com",
			Password: "wrong-pass",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	})

	t.Run("uses the same error for an unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(context.Background(), LoginRequest{
			Email:    "ghost@example.com",
			Password: "whatever1",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	})

	t.Run("rejects a disabled account", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		user := mustUser(t, "owner@example.com", "s3cret-pass")
		user.Disable()
		repo.On("FindByEmail", mock.Anything, "owner@example.com").Return(user, nil)

		_, err := svc.Login(context.Background(), LoginRequest{
			Email:    "owner@example.com",
			Password: "s3cret-pass",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ACCOUNT_DISABLED", domainErr.Code)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("rotates the refresh token", func(t *testing.T) {
		ctx := context.Background()
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		user := mustUser(t, "owner@example.com", "s3cret-pass")
		repo.On("FindByEmail", mock.Anything, "owner@example.com").Return(user, nil)
		repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		login, err := svc.Login(ctx, LoginRequest{Email: "owner@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)

		refreshed, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.Tokens.AccessToken)

		// The used refresh token is revoked and cannot be replayed.
		_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
		assert.Equal(t, shared.ErrUnauthorized, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo)

		_, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "not-a-token"})
		assert.Equal(t, shared.ErrUnauthorized, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo)

	user := mustUser(t, "owner@example.com", "s3cret-pass")
	repo.On("FindByEmail", mock.Anything, "owner@example.com").Return(user, nil)

	login, err := svc.Login(ctx, LoginRequest{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.Tokens.AccessToken, login.Tokens.RefreshToken))

	// The revoked refresh token is no longer usable.
	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
	assert.Equal(t, shared.ErrUnauthorized, err)
}
