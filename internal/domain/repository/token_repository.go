package repository

import (
	"context"

	"github.com/bravo68web/testuser/internal/domain/models"
	"github.com/google/uuid"
)

// TokenRepository defines the interface for access token data access operations
type TokenRepository interface {
	// Create creates a new token in the datastore
	Create(ctx context.Context, token *models.Token) error

	// FindByID retrieves a token by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Token, error)

	// FindByHash retrieves a token by its hashed value
	FindByHash(ctx context.Context, hash string) (*models.Token, error)

	// FindByUserID retrieves all tokens for a user
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Token, error)

	// CountByUserID returns the number of tokens for a user
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
