package models

import (
	"time"

	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/comercio/backend/internal/domain/store"
	"github.com/google/uuid"
)

// StoreModel is the persistence model for the Store aggregate root.
type StoreModel struct {
	AggregateModel
	Name     string            `gorm:"type:varchar(200);not null"`
	Slug     string            `gorm:"type:varchar(100);not null;uniqueIndex"`
	OwnerID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Currency string            `gorm:"type:varchar(3);not null"`
	Status   store.StoreStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	Members  []StoreMemberModel `gorm:"foreignKey:StoreID;references:ID"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store
func (m *StoreModel) ToDomain() *store.Store {
	members := make([]store.Member, len(m.Members))
	for i, member := range m.Members {
		members[i] = *member.ToDomain()
	}
	return &store.Store{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		OwnerID:           m.OwnerID,
		Currency:          valueobject.Currency(m.Currency),
		Status:            m.Status,
		Members:           members,
	}
}

// FromDomain populates the persistence model from a domain Store
func (m *StoreModel) FromDomain(s *store.Store) {
	m.FromAggregateRoot(s.BaseAggregateRoot)
	m.Name = s.Name
	m.Slug = s.Slug
	m.OwnerID = s.OwnerID
	m.Currency = s.Currency.String()
	m.Status = s.Status
	m.Members = make([]StoreMemberModel, len(s.Members))
	for i, member := range s.Members {
		m.Members[i] = *StoreMemberModelFromDomain(&member)
	}
}

// StoreModelFromDomain creates a persistence model from a domain Store
func StoreModelFromDomain(s *store.Store) *StoreModel {
	m := &StoreModel{}
	m.FromDomain(s)
	return m
}

// StoreMemberModel is the persistence model for store membership.
// A user appears at most once per store.
type StoreMemberModel struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key"`
	StoreID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_member_store_user,priority:1"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_member_store_user,priority:2;index"`
	Role      store.MemberRole `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreMemberModel) TableName() string {
	return "store_members"
}

// ToDomain converts the persistence model to a domain Member
func (m *StoreMemberModel) ToDomain() *store.Member {
	return &store.Member{
		ID:        m.ID,
		StoreID:   m.StoreID,
		UserID:    m.UserID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}

// StoreMemberModelFromDomain creates a persistence model from a domain Member
func StoreMemberModelFromDomain(member *store.Member) *StoreMemberModel {
	return &StoreMemberModel{
		ID:        member.ID,
		StoreID:   member.StoreID,
		UserID:    member.UserID,
		Role:      member.Role,
		CreatedAt: member.CreatedAt,
	}
}
