// Package auth is the ledger's identity collaborator: it registers and
// authenticates users and resolves opaque user IDs (and settlement
// counterparty emails) to accounts. The ledger engine itself never looks
// inside a user ID.
package auth

import (
	"context"

	"github.com/splitsync/splitsync/internal/models"
)

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage
// implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Identity resolves and authenticates user accounts.
type Identity interface {
	// Register creates a new user account with the given email and password.
	Register(ctx context.Context, email, displayName, password string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user if valid.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	// Resolve maps a user ID to its account. Returns nil, nil when unknown.
	Resolve(ctx context.Context, userID string) (*models.User, error)

	// ResolveEmail maps an email to its account (settlement counterparty
	// lookup). Returns nil, nil when unknown.
	ResolveEmail(ctx context.Context, email string) (*models.User, error)
}
