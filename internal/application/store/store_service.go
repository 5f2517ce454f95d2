package store

import (
	"context"
	"time"

	"github.com/comercio/backend/internal/domain/identity"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/comercio/backend/internal/domain/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===================== DTOs =====================

// CreateStoreRequest represents a request to create a store
type CreateStoreRequest struct {
	Name     string    `json:"name" binding:"required,max=200"`
	Slug     string    `json:"slug" binding:"required,max=100"`
	Currency string    `json:"currency"`
	OwnerID  uuid.UUID `json:"-"` // from JWT context, never from the body
}

// AddMemberRequest represents a request to add a member to a store
type AddMemberRequest struct {
	Email   string    `json:"email" binding:"required,email"`
	Role    string    `json:"role" binding:"required,oneof=ADMIN STAFF"`
	ActorID uuid.UUID `json:"-"`
}

// MemberResponse represents a store member in API responses
type MemberResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreResponse represents a store in API responses
type StoreResponse struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	Currency  string           `json:"currency"`
	Status    string           `json:"status"`
	Members   []MemberResponse `json:"members,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ListStoresFilter narrows the store listing
type ListStoresFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// StoreService manages tenant stores and their memberships
type StoreService struct {
	stores store.Repository
	users  identity.UserRepository
	logger *zap.Logger
}

// NewStoreService creates a new StoreService
func NewStoreService(stores store.Repository, users identity.UserRepository, logger *zap.Logger) *StoreService {
	return &StoreService{stores: stores, users: users, logger: logger}
}

// CreateStore creates a store owned by the requesting user
func (s *StoreService) CreateStore(ctx context.Context, req CreateStoreRequest) (*StoreResponse, error) {
	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(req.Currency)
	}

	if _, err := s.stores.FindBySlug(ctx, req.Slug); err == nil {
		return nil, shared.NewDomainError("SLUG_TAKEN", "A store with this slug already exists")
	} else if err != shared.ErrNotFound {
		return nil, err
	}

	st, err := store.NewStore(req.Name, req.Slug, req.OwnerID, currency)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Save(ctx, st); err != nil {
		if err == shared.ErrConflict {
			// Lost a race on the slug unique index.
			return nil, shared.NewDomainError("SLUG_TAKEN", "A store with this slug already exists")
		}
		return nil, err
	}

	s.logger.Info("store created",
		zap.String("store_id", st.ID.String()),
		zap.String("slug", st.Slug),
		zap.String("owner_id", req.OwnerID.String()))

	resp := s.toStoreResponse(ctx, st)
	return &resp, nil
}

// ListMyStores lists the stores the user is a member of
func (s *StoreService) ListMyStores(ctx context.Context, userID uuid.UUID, filter ListStoresFilter) ([]StoreResponse, error) {
	stores, err := s.stores.FindAllForUser(ctx, userID, shared.Filter{
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]StoreResponse, len(stores))
	for i := range stores {
		// Member details are omitted from listings.
		responses[i] = s.toStoreResponse(ctx, &stores[i])
		responses[i].Members = nil
	}
	return responses, nil
}

// GetStore returns a store with its membership. The caller must be a
// member; non-members get NOT_FOUND rather than a membership probe.
func (s *StoreService) GetStore(ctx context.Context, storeID, userID uuid.UUID) (*StoreResponse, error) {
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if _, ok := st.RoleOf(userID); !ok {
		return nil, shared.ErrNotFound
	}
	resp := s.toStoreResponse(ctx, st)
	return &resp, nil
}

// AddMember adds a user, looked up by email, to the store. Only
// owners and admins may manage membership.
func (s *StoreService) AddMember(ctx context.Context, storeID uuid.UUID, req AddMemberRequest) (*StoreResponse, error) {
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	role, ok := st.RoleOf(req.ActorID)
	if !ok {
		return nil, shared.ErrNotFound
	}
	if !role.CanManage() {
		return nil, shared.ErrForbidden
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "No account exists for this email")
		}
		return nil, err
	}

	if err := st.AddMember(user.ID, store.MemberRole(req.Role)); err != nil {
		return nil, err
	}

	if err := s.stores.Save(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info("member added",
		zap.String("store_id", st.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", req.Role))

	resp := s.toStoreResponse(ctx, st)
	return &resp, nil
}

// ResolveRole returns the caller's role in a store. Middleware uses
// this to gate every store-scoped route.
func (s *StoreService) ResolveRole(ctx context.Context, storeID, userID uuid.UUID) (store.MemberRole, error) {
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return "", err
	}
	if !st.IsActive() {
		return "", shared.NewDomainError("STORE_SUSPENDED", "Store is suspended")
	}
	role, ok := st.RoleOf(userID)
	if !ok {
		return "", shared.ErrForbidden
	}
	return role, nil
}

func (s *StoreService) toStoreResponse(ctx context.Context, st *store.Store) StoreResponse {
	resp := StoreResponse{
		ID:        st.ID,
		Name:      st.Name,
		Slug:      st.Slug,
		OwnerID:   st.OwnerID,
		Currency:  string(st.Currency),
		Status:    string(st.Status),
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
	if len(st.Members) == 0 {
		return resp
	}

	ids := make([]uuid.UUID, len(st.Members))
	for i, m := range st.Members {
		ids[i] = m.UserID
	}
	names, err := s.users.FindNamesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to resolve member names", zap.Error(err))
		names = map[uuid.UUID]string{}
	}

	resp.Members = make([]MemberResponse, len(st.Members))
	for i, m := range st.Members {
		resp.Members[i] = MemberResponse{
			UserID:    m.UserID,
			Name:      names[m.UserID],
			Role:      string(m.Role),
			CreatedAt: m.CreatedAt,
		}
	}
	return resp
}
