package models

import (
	"time"

	"github.com/cablenet/billing/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate.
type UserModel struct {
	TenantAggregateModel
	Username     string            `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email        string            `gorm:"type:varchar(100)"`
	FullName     string            `gorm:"type:varchar(100)"`
	PasswordHash string            `gorm:"type:varchar(255);not null"`
	Role         identity.UserRole `gorm:"type:varchar(20);not null;default:'operator'"`
	Active       bool              `gorm:"not null"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		Username:     m.Username,
		Email:        m.Email,
		FullName:     m.FullName,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		Active:       m.Active,
		LastLoginAt:  m.LastLoginAt,
	}
	m.PopulateTenantAggregateRoot(&u.TenantAggregateRoot)
	return u
}

// FromDomain populates the persistence model from a domain User.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.FullName = u.FullName
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.Active = u.Active
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
