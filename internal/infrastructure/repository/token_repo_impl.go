package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bravo68web/testuser/internal/domain/models"
	"github.com/bravo68web/testuser/internal/domain/repository"
	apperror "github.com/bravo68web/testuser/pkg/errors"
	"github.com/google/uuid"
)

// TokenRepoImpl implements the TokenRepository interface using GORM
type TokenRepoImpl struct {
	store Connector
}

// NewTokenRepository creates a new TokenRepoImpl instance
func NewTokenRepository(store Connector) repository.TokenRepository {
	return &TokenRepoImpl{store: store}
}

// Create creates a new token in the datastore
func (r *TokenRepoImpl) Create(ctx context.Context, token *models.Token) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Omit("User").Create(token).Error; err != nil {
		return apperror.PersistenceError("create token", err)
	}
	return nil
}

// FindByID retrieves a token by its ID
func (r *TokenRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Token, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var token models.Token
	if err := db.Where("id = ?", id).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.LookupError("find token by id", err)
	}
	return &token, nil
}

// FindByHash retrieves a token by its hashed value
func (r *TokenRepoImpl) FindByHash(ctx context.Context, hash string) (*models.Token, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var token models.Token
	if err := db.Where("hash = ?", hash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.LookupError("find token by hash", err)
	}
	return &token, nil
}

// FindByUserID retrieves all tokens for a user
func (r *TokenRepoImpl) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Token, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var tokens []*models.Token
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tokens).Error; err != nil {
		return nil, apperror.LookupError("find tokens by user id", err)
	}
	return tokens, nil
}

// CountByUserID returns the number of tokens for a user
func (r *TokenRepoImpl) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&models.Token{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperror.LookupError("count tokens by user id", err)
	}
	return count, nil
}

// Verify interface compliance at compile time
var _ repository.TokenRepository = (*TokenRepoImpl)(nil)
