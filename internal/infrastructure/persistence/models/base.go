package models

import (
	"time"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromBaseEntity populates BaseModel from a domain BaseEntity
func (m *BaseModel) FromBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// ToBaseEntity converts BaseModel to a domain BaseEntity
func (m *BaseModel) ToBaseEntity() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// AggregateModel extends BaseModel with a version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromAggregateRoot populates AggregateModel from a domain BaseAggregateRoot
func (m *AggregateModel) FromAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToAggregateRoot converts AggregateModel to a domain BaseAggregateRoot
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.ToBaseEntity(),
		Version:    m.Version,
	}
}

// StoreAggregateModel extends AggregateModel with store scoping and
// actor attribution.
type StoreAggregateModel struct {
	AggregateModel
	StoreID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromStoreAggregateRoot populates StoreAggregateModel from a domain StoreAggregateRoot
func (m *StoreAggregateModel) FromStoreAggregateRoot(s shared.StoreAggregateRoot) {
	m.FromAggregateRoot(s.BaseAggregateRoot)
	m.StoreID = s.StoreID
	m.CreatedBy = s.CreatedBy
	m.UpdatedBy = s.UpdatedBy
}

// ToStoreAggregateRoot converts StoreAggregateModel to a domain StoreAggregateRoot
func (m *StoreAggregateModel) ToStoreAggregateRoot() shared.StoreAggregateRoot {
	return shared.StoreAggregateRoot{
		BaseAggregateRoot: m.ToAggregateRoot(),
		StoreID:           m.StoreID,
		CreatedBy:         m.CreatedBy,
		UpdatedBy:         m.UpdatedBy,
	}
}
