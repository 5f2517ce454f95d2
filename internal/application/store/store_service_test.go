package store

import (
	"context"
	"testing"

	"github.com/comercio/backend/internal/domain/identity"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/comercio/backend/internal/domain/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockStoreRepository is a testify mock of store.Repository
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepository) FindBySlug(ctx context.Context, slug string) (*store.Store, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]store.Store, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Store), args.Error(1)
}

func (m *MockStoreRepository) Save(ctx context.Context, s *store.Store) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

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

func newTestStoreService() (*StoreService, *MockStoreRepository, *MockUserRepository) {
	stores := new(MockStoreRepository)
	users := new(MockUserRepository)
	return NewStoreService(stores, users, zap.NewNop()), stores, users
}

func mustStore(t *testing.T, ownerID uuid.UUID) *store.Store {
	t.Helper()
	st, err := store.NewStore("Panadería Central", "panaderia-central", ownerID, valueobject.USD)
	require.NoError(t, err)
	return st
}

func TestStoreService_CreateStore(t *testing.T) {
	t.Run("creates a store with the owner as first member", func(t *testing.T) {
		svc, stores, users := newTestStoreService()
		ownerID := uuid.New()

		stores.On("FindBySlug", mock.Anything, "panaderia-central").Return(nil, shared.ErrNotFound)
		stores.On("Save", mock.Anything, mock.AnythingOfType("*store.Store")).Return(nil)
		users.On("FindNamesByIDs", mock.Anything, mock.Anything).
			Return(map[uuid.UUID]string{ownerID: "Owner"}, nil)

		resp, err := svc.CreateStore(context.Background(), CreateStoreRequest{
			Name:    "Panadería Central",
			Slug:    "panaderia-central",
			OwnerID: ownerID,
		})

		require.NoError(t, err)
		assert.Equal(t, "panaderia-central", resp.Slug)
		assert.Equal(t, "USD", resp.Currency)
		require.Len(t, resp.Members, 1)
		assert.Equal(t, "OWNER", resp.Members[0].Role)
		assert.Equal(t, "Owner", resp.Members[0].Name)
	})

	t.Run("rejects a taken slug", func(t *testing.T) {
		svc, stores, _ := newTestStoreService()
		ownerID := uuid.New()
		existing := mustStore(t, uuid.New())

		stores.On("FindBySlug", mock.Anything, "panaderia-central").Return(existing, nil)

		_, err := svc.CreateStore(context.Background(), CreateStoreRequest{
			Name:    "Panadería Central",
			Slug:    "panaderia-central",
			OwnerID: ownerID,
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SLUG_TAKEN", domainErr.Code)
		stores.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects an unsupported currency", func(t *testing.T) {
		svc, stores, _ := newTestStoreService()

		stores.On("FindBySlug", mock.Anything, "panaderia-central").Return(nil, shared.ErrNotFound)

		_, err := svc.CreateStore(context.Background(), CreateStoreRequest{
			Name:     "Panadería Central",
			Slug:     "panaderia-central",
			Currency: "GBP",
			OwnerID:  uuid.New(),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CURRENCY", domainErr.Code)
	})
}

func TestStoreService_GetStore(t *testing.T) {
	t.Run("returns the store to a member", func(t *testing.T) {
		svc, stores, users := newTestStoreService()
		ownerID := uuid.New()
		st := mustStore(t, ownerID)

		stores.On("FindByID", mock.Anything, st.ID).Return(st, nil)
		users.On("FindNamesByIDs", mock.Anything, mock.Anything).
			Return(map[uuid.UUID]string{ownerID: "Owner"}, nil)

		resp, err := svc.GetStore(context.Background(), st.ID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, st.ID, resp.ID)
	})

	t.Run("hides the store from non-members", func(t *testing.T) {
		svc, stores, _ := newTestStoreService()
		st := mustStore(t, uuid.New())

		stores.On("FindByID", mock.Anything, st.ID).Return(st, nil)

		_, err := svc.GetStore(context.Background(), st.ID, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestStoreService_AddMember(t *testing.T) {
	t.Run("owner adds a staff member by email", func(t *testing.T) {
		svc, stores, users := newTestStoreService()
		ownerID := uuid.New()
		st := mustStore(t, ownerID)

		newMember, err := identity.NewUser("staff@example.com", "Staff Member", "s3cret-pass")
		require.NoError(t, err)

		stores.On("FindByID", mock.Anything, st.ID).Return(st, nil)
		users.On("FindByEmail", mock.Anything, "staff@example.com").Return(newMember, nil)
		stores.On("Save", mock.Anything, st).Return(nil)
		users.On("FindNamesByIDs", mock.Anything, mock.Anything).
			Return(map[uuid.UUID]string{ownerID: "Owner", newMember.ID: "Staff Member"}, nil)

		resp, err := svc.AddMember(context.Background(), st.ID, AddMemberRequest{
			Email:   "staff@example.com",
			Role:    "STAFF",
			ActorID: ownerID,
		})

		require.NoError(t, err)
		require.Len(t, resp.Members, 2)
		assert.Equal(t, "STAFF", resp.Members[1].Role)
	})

	t.Run("staff may not manage membership", func(t *testing.T) {
		svc, stores, _ := newTestStoreService()
		ownerID := uuid.New()
		staffID := uuid.New()
		st := mustStore(t, ownerID)
		require.NoError(t, st.AddMember(staffID, store.RoleStaff))

		stores.On("FindByID", mock.Anything, st.ID).Return(st, nil)

		_, err := svc.AddMember(context.Background(), st.ID, AddMemberRequest{
			Email:   "other@example.com",
			Role:    "STAFF",
			ActorID: staffID,
		})
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("unknown email is reported", func(t *testing.T) {
		svc, stores, users := newTestStoreService()
		ownerID := uuid.New()
		st := mustStore(t, ownerID)

		stores.On("FindByID", mock.Anything, st.ID).Return(st, nil)
		users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)

		_, err := svc.AddMember(context.Background(), st.ID, AddMemberRequest{
			Email:   "ghost@example.com",
			Role:    "STAFF",
			ActorID: ownerID,
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "USER_NOT_FOUND", domainErr.Code)
	})
}

func TestStoreService_ResolveRole(t *testing.T) {
	svc, stores, _ := newTestStoreService()
	ownerID := uuid.New()
	st := mustStore(t, ownerID)

	suspended := mustStore(t, ownerID)
	suspended.Slug = "suspended-store"
	suspended.Suspend()

	stores.On("FindByID", mock.Anything, st.ID).Return(st, nil)
	stores.On("FindByID", mock.Anything, suspended.ID).Return(suspended, nil)

	role, err := svc.ResolveRole(context.Background(), st.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, store.RoleOwner, role)

	_, err = svc.ResolveRole(context.Background(), st.ID, uuid.New())
	assert.Equal(t, shared.ErrForbidden, err)

	_, err = svc.ResolveRole(context.Background(), suspended.ID, ownerID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STORE_SUSPENDED", domainErr.Code)
}
