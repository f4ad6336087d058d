package models

import (
	"time"

	"github.com/google/uuid"
)

// Device is one slot of an account's device quota. DeviceID is client-supplied
// and only unique within an account.
type Device struct {
	AccountID  uuid.UUID `db:"account_id"  json:"accountId"`
	DeviceID   string    `db:"device_id"   json:"deviceId"`
	Name       string    `db:"name"        json:"name"`
	LastActive time.Time `db:"last_active" json:"lastActive"`
	CreatedAt  time.Time `db:"created_at"  json:"createdAt"`
}

type SlotDecision int

const (
	SlotRejected SlotDecision = iota
	SlotRenewed
	SlotCreated
)

func (d SlotDecision) String() string {
	switch d {
	case SlotRenewed:
		return "renewed"
	case SlotCreated:
		return "created"
	default:
		return "rejected"
	}
}

func (d SlotDecision) Admitted() bool {
	return d == SlotRenewed || d == SlotCreated
}
