package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence for user accounts
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindNamesByIDs resolves display names for a batch of user IDs
	FindNamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	// Save creates or updates a user
	Save(ctx context.Context, u *User) error
}
