package repository

import (
	"context"

	"github.com/bravo68web/testuser/internal/domain/models"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user data access operations
type UserRepository interface {
	// Create creates a new user in the datastore
	Create(ctx context.Context, user *models.User) error

	// FindByID retrieves a user by their ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByUsernameAndSCMContext retrieves a user by the unique (username, scmContext) key
	FindByUsernameAndSCMContext(ctx context.Context, username, scmContext string) (*models.User, error)

	// Update persists changes to an existing user
	Update(ctx context.Context, user *models.User) error

	// CountByUsernameAndSCMContext returns how many users match the key
	CountByUsernameAndSCMContext(ctx context.Context, username, scmContext string) (int64, error)
}
