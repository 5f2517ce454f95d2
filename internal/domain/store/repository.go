package store

import (
	"context"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence for stores and their members
type Repository interface {
	// FindByID finds a store by ID, members included
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)

	// FindBySlug finds a store by its slug
	FindBySlug(ctx context.Context, slug string) (*Store, error)

	// FindAllForUser lists the stores a user is a member of
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Store, error)

	// Save creates or updates a store and its members
	Save(ctx context.Context, s *Store) error
}
