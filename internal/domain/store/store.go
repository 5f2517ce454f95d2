package store

import (
	"fmt"
	"regexp"
	"time"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// StoreStatus represents the lifecycle status of a store
type StoreStatus string

const (
	StoreStatusActive    StoreStatus = "ACTIVE"
	StoreStatusSuspended StoreStatus = "SUSPENDED"
)

// IsValid checks if the status is a valid StoreStatus
func (s StoreStatus) IsValid() bool {
	return s == StoreStatusActive || s == StoreStatusSuspended
}

// MemberRole represents a member's role within a store
type MemberRole string

const (
	RoleOwner MemberRole = "OWNER"
	RoleAdmin MemberRole = "ADMIN"
	RoleStaff MemberRole = "STAFF"
)

// IsValid checks if the role is a valid MemberRole
func (r MemberRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// CanManage returns true if the role may change record status,
// edit records and manage members
func (r MemberRole) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Member associates a user with a store and a role
type Member struct {
	ID        uuid.UUID  `json:"id"`
	StoreID   uuid.UUID  `json:"store_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      MemberRole `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Store is the tenant aggregate. Every financial record, query and
// document-number sequence is scoped by the store that owns it.
type Store struct {
	shared.BaseAggregateRoot
	Name     string               `json:"name"`
	Slug     string               `json:"slug"`
	OwnerID  uuid.UUID            `json:"owner_id"`
	Currency valueobject.Currency `json:"currency"`
	Status   StoreStatus          `json:"status"`
	Members  []Member             `json:"members"`
}

// NewStore creates a store owned by the given user. The owner is
// automatically added as a member with the OWNER role.
func NewStore(name, slug string, ownerID uuid.UUID, currency valueobject.Currency) (*Store, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Store name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Store name cannot exceed 200 characters")
	}
	if !slugPattern.MatchString(slug) {
		return nil, shared.NewDomainError("INVALID_SLUG", "Slug must be lowercase letters, digits and hyphens")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not supported", currency))
	}

	s := &Store{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		OwnerID:           ownerID,
		Currency:          currency,
		Status:            StoreStatusActive,
	}
	s.Members = []Member{{
		ID:        uuid.New(),
		StoreID:   s.ID,
		UserID:    ownerID,
		Role:      RoleOwner,
		CreatedAt: s.CreatedAt,
	}}
	return s, nil
}

// AddMember adds a user to the store with the given role
func (s *Store) AddMember(userID uuid.UUID, role MemberRole) error {
	if userID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Role %q is not valid", role))
	}
	if role == RoleOwner {
		return shared.NewDomainError("INVALID_ROLE", "A store has exactly one owner")
	}
	for _, m := range s.Members {
		if m.UserID == userID {
			return shared.NewDomainError("ALREADY_MEMBER", "User is already a member of this store")
		}
	}
	s.Members = append(s.Members, Member{
		ID:        uuid.New(),
		StoreID:   s.ID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now(),
	})
	s.Touch()
	return nil
}

// RoleOf returns the role of a user in this store, or false if the
// user is not a member
func (s *Store) RoleOf(userID uuid.UUID) (MemberRole, bool) {
	for _, m := range s.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// IsActive returns true if the store accepts mutations
func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}

// Suspend blocks further mutations against the store
func (s *Store) Suspend() {
	s.Status = StoreStatusSuspended
	s.Touch()
}
