package models

import (
	"github.com/comercio/backend/internal/domain/identity"
)

// UserModel is the persistence model for user accounts.
type UserModel struct {
	AggregateModel
	Email        string              `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string              `gorm:"type:varchar(200);not null"`
	PasswordHash string              `gorm:"type:varchar(100);not null"`
	Status       identity.UserStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		PasswordHash:      m.PasswordHash,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.Name = u.Name
	m.PasswordHash = u.PasswordHash
	m.Status = u.Status
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
