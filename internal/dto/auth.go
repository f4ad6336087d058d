package dto

import (
	"time"

	md "github.com/JMURv/device-auth/internal/models"
	"github.com/google/uuid"
)

type LoginRequest struct {
	Username   string `json:"username"   validate:"required"`
	Password   string `json:"password"   validate:"required"`
	DeviceID   string `json:"deviceId"   validate:"required,max=255"`
	DeviceName string `json:"deviceName" validate:"max=255"`
	Captcha    string `json:"captcha"`
}

type Session struct {
	Token     string        `json:"token"`
	TokenType string        `json:"tokenType"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Account   AccountStatus `json:"account"`
}

type AccountStatus struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Role           md.Role    `json:"role"`
	IsActive       bool       `json:"isActive"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	MaxDevices     int        `json:"maxDevices"`
	CurrentDevices int        `json:"currentDevices"`
	IsOnline       bool       `json:"isOnline"`
}

// AccountContext is the identity attached to a request after session resolution.
type AccountContext struct {
	ID       uuid.UUID
	Username string
	Role     md.Role
}

func NewAccountStatus(a *md.Account, devices int) AccountStatus {
	return AccountStatus{
		ID:             a.ID,
		Username:       a.Username,
		Role:           a.Role,
		IsActive:       a.IsActive,
		ExpiresAt:      a.ExpiresAt,
		MaxDevices:     a.MaxDevices,
		CurrentDevices: devices,
		IsOnline:       a.IsOnline,
	}
}

type RecaptchaResponse struct {
	Success     bool      `json:"success"`
	Score       float64   `json:"score"`
	Action      string    `json:"action"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	ErrorCodes  []string  `json:"error-codes"`
}
