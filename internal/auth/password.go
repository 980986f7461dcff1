package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/splitsync/splitsync/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// PasswordIdentity implements Identity with bcrypt-hashed passwords.
type PasswordIdentity struct {
	storage UserStorage
}

// Ensure PasswordIdentity implements Identity
var _ Identity = (*PasswordIdentity)(nil)

// NewPasswordIdentity creates a password-based identity collaborator.
func NewPasswordIdentity(storage UserStorage) *PasswordIdentity {
	return &PasswordIdentity{storage: storage}
}

// Register creates a new user account with a hashed password.
func (a *PasswordIdentity) Register(ctx context.Context, email, displayName, password string) (*models.User, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	// Check if email already exists
	existing, err := a.storage.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, displayName, string(hashed))
	if err := a.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordIdentity) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Resolve maps a user ID to its account.
func (a *PasswordIdentity) Resolve(ctx context.Context, userID string) (*models.User, error) {
	return a.storage.GetUserByID(ctx, userID)
}

// ResolveEmail maps an email to its account.
func (a *PasswordIdentity) ResolveEmail(ctx context.Context, email string) (*models.User, error) {
	return a.storage.GetUserByEmail(ctx, email)
}
