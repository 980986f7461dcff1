package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
//
// The ledger engine treats user IDs as opaque keys; this record exists for
// the identity collaborator (login, display names, settlement counterparty
// resolution by email).
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique). Used for login and for
	// resolving settlement counterparties.
	Email string `json:"email"`

	// DisplayName is shown in activity logs and balance listings.
	DisplayName string `json:"display_name"`

	// PasswordHash is the bcrypt hash of the user's password. Never exposed
	// over the wire.
	PasswordHash string `json:"-"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
