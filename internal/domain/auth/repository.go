package auth

import (
	"context"

	"stockledger/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user. A taken username is DUPLICATE_ENTRY.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByUsername retrieves user by lowercase username.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
