package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	identityapp "github.com/comercio/backend/internal/application/identity"
	storeapp "github.com/comercio/backend/internal/application/store"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/store"
	"github.com/comercio/backend/internal/infrastructure/auth"
	"github.com/comercio/backend/internal/infrastructure/config"
	"github.com/comercio/backend/internal/interfaces/http/middleware"
	"github.com/comercio/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// savingStoreRepository is an in-memory store.Repository that keeps
// saved aggregates
type savingStoreRepository struct {
	mu     sync.Mutex
	stores map[uuid.UUID]*store.Store
}

func newSavingStoreRepository() *savingStoreRepository {
	return &savingStoreRepository{stores: map[uuid.UUID]*store.Store{}}
}

func (r *savingStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stores[id]; ok {
		return st, nil
	}
	return nil, shared.ErrNotFound
}

func (r *savingStoreRepository) FindBySlug(ctx context.Context, slug string) (*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.stores {
		if st.Slug == slug {
			return st, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *savingStoreRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []store.Store
	for _, st := range r.stores {
		if _, ok := st.RoleOf(userID); ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (r *savingStoreRepository) Save(ctx context.Context, s *store.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.ID] = s
	return nil
}

func newStoreTestRouter(t *testing.T) (*gin.Engine, func(email string) string) {
	t.Helper()

	users := newMemoryUserRepository()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "backoffice-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(users, jwtService, blacklist, zap.NewNop())
	storeService := storeapp.NewStoreService(newSavingStoreRepository(), users, zap.NewNop())
	authenticator := middleware.NewAuthenticator(jwtService, blacklist, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.New(engine).Register(
		NewAuthHandler(authService, authenticator),
		NewStoreHandler(storeService, authenticator),
	).Setup()

	signUp := func(email string) string {
		_, err := authService.Register(context.Background(), identityapp.RegisterRequest{
			Email: email, Name: "User " + email, Password: "s3cret-pass",
		})
		require.NoError(t, err)
		result, err := authService.Login(context.Background(), identityapp.LoginRequest{
			Email: email, Password: "s3cret-pass",
		})
		require.NoError(t, err)
		return result.Tokens.AccessToken
	}

	return engine, signUp
}

func TestStoreHandler_Lifecycle(t *testing.T) {
	engine, signUp := newStoreTestRouter(t)

	ownerToken := signUp("owner@example.com")
	staffToken := signUp("staff@example.com")

	// Create a store.
	w := doJSON(t, engine, http.MethodPost, "/api/v1/stores", ownerToken, gin.H{
		"name": "Panadería Central",
		"slug": "panaderia-central",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data storeapp.StoreResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	storeID := created.Data.ID.String()
	require.Len(t, created.Data.Members, 1)

	t.Run("duplicate slug gets 409", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/stores", ownerToken, gin.H{
			"name": "Another",
			"slug": "panaderia-central",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("owner sees the store in their listing", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/stores", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Data []storeapp.StoreResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list.Data, 1)
	})

	t.Run("non-member cannot read the store", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/stores/"+storeID, staffToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("owner adds a member by email", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/stores/"+storeID+"/members", ownerToken, gin.H{
			"email": "staff@example.com",
			"role":  "STAFF",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		// The new member can now read the store.
		r := doJSON(t, engine, http.MethodGet, "/api/v1/stores/"+storeID, staffToken, nil)
		assert.Equal(t, http.StatusOK, r.Code)
	})

	t.Run("staff may not add members", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/stores/"+storeID+"/members", staffToken, gin.H{
			"email": "third@example.com",
			"role":  "STAFF",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown member email gets 404", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/stores/"+storeID+"/members", ownerToken, gin.H{
			"email": "ghost@example.com",
			"role":  "STAFF",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
