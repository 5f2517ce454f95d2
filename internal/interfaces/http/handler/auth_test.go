package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	identityapp "github.com/comercio/backend/internal/application/identity"
	"github.com/comercio/backend/internal/domain/identity"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/infrastructure/auth"
	"github.com/comercio/backend/internal/infrastructure/config"
	"github.com/comercio/backend/internal/interfaces/http/dto"
	"github.com/comercio/backend/internal/interfaces/http/middleware"
	"github.com/comercio/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryUserRepository is an in-memory identity.UserRepository for
// handler tests
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: map[uuid.UUID]*identity.User{}}
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryUserRepository) FindNamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[uuid.UUID]string)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			names[id] = u.Name
		}
	}
	return names, nil
}

func (r *memoryUserRepository) Save(ctx context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *memoryUserRepository) {
	t.Helper()

	users := newMemoryUserRepository()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "backoffice-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	service := identityapp.NewAuthService(users, jwtService, blacklist, zap.NewNop())
	authenticator := middleware.NewAuthenticator(jwtService, blacklist, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.New(engine).Register(NewAuthHandler(service, authenticator)).Setup()
	return engine, users
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	engine, _ := newAuthTestRouter(t)

	t.Run("creates an account", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"email":    "new@example.com",
			"name":     "New User",
			"password": "s3cret-pass",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
	})

	t.Run("duplicate email gets 409", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"email":    "new@example.com",
			"name":     "Impostor",
			"password": "s3cret-pass",
		})
		require.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "EMAIL_TAKEN", resp.Error.Code)
	})

	t.Run("missing fields get 400", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"email": "incomplete@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_LoginAndMe(t *testing.T) {
	engine, _ := newAuthTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "owner@example.com",
		"name":     "Owner",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("wrong password gets 401", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"email":    "owner@example.com",
			"password": "wrong-pass",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	})

	t.Run("valid login returns tokens and me works", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"email":    "owner@example.com",
			"password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var login struct {
			Data struct {
				User   identityapp.UserResponse `json:"user"`
				Tokens struct {
					AccessToken  string `json:"access_token"`
					RefreshToken string `json:"refresh_token"`
				} `json:"tokens"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
		require.NotEmpty(t, login.Data.Tokens.AccessToken)

		me := doJSON(t, engine, http.MethodGet, "/api/v1/auth/me", login.Data.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, me.Code)

		t.Run("refresh rotates and logout revokes", func(t *testing.T) {
			refreshed := doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{
				"refresh_token": login.Data.Tokens.RefreshToken,
			})
			require.Equal(t, http.StatusOK, refreshed.Code)

			// The rotated-out refresh token cannot be replayed.
			replay := doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{
				"refresh_token": login.Data.Tokens.RefreshToken,
			})
			assert.Equal(t, http.StatusUnauthorized, replay.Code)

			out := doJSON(t, engine, http.MethodPost, "/api/v1/auth/logout", login.Data.Tokens.AccessToken, nil)
			require.Equal(t, http.StatusNoContent, out.Code)

			// The revoked access token no longer authenticates.
			me := doJSON(t, engine, http.MethodGet, "/api/v1/auth/me", login.Data.Tokens.AccessToken, nil)
			assert.Equal(t, http.StatusUnauthorized, me.Code)
		})
	})

	t.Run("me without a token gets 401", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
