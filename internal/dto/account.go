package dto

import (
	"time"

	"github.com/google/uuid"
)

type PaginatedAccountResponse struct {
	Data        []AccountStatus `json:"data"`
	Count       int64           `json:"count"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	HasNextPage bool            `json:"hasNextPage"`
}

type CreateAccountRequest struct {
	Username   string `json:"username"   validate:"required,min=3,max=64"`
	Password   string `json:"password"   validate:"required,min=6,max=72"`
	ActiveDays int    `json:"activeDays" validate:"gte=0"`
	MaxDevices int    `json:"maxDevices" validate:"gte=0"`
}

type UpdateAccountRequest struct {
	IsActive   *bool      `json:"isActive"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	NoExpiry   bool       `json:"noExpiry"`
	MaxDevices *int       `json:"maxDevices" validate:"omitempty,gte=1"`
}

type CreateAccountResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}
