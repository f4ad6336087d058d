package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

type Account struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	Username   string     `db:"username"    json:"username"`
	Password   string     `db:"password"    json:"-"`
	Role       Role       `db:"role"        json:"role"`
	IsActive   bool       `db:"is_active"   json:"isActive"`
	ExpiresAt  *time.Time `db:"expires_at"  json:"expiresAt"`
	MaxDevices int        `db:"max_devices" json:"maxDevices"`
	IsOnline   bool       `db:"is_online"   json:"isOnline"`
	CreatedAt  time.Time  `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updatedAt"`
}

// Expired reports whether the account has an expiry that lies before now.
func (a *Account) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// AccountSummary is an account together with its current device slot count.
type AccountSummary struct {
	Account
	CurrentDevices int `db:"current_devices" json:"currentDevices"`
}
