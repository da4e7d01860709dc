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

// Connector hands out datastore sessions once the datastore is set up
type Connector interface {
	Conn(ctx context.Context) (*gorm.DB, error)
}

// UserRepoImpl implements the UserRepository interface using GORM
type UserRepoImpl struct {
	store Connector
}

// NewUserRepository creates a new UserRepoImpl instance
func NewUserRepository(store Connector) repository.UserRepository {
	return &UserRepoImpl{store: store}
}

// Create creates a new user in the datastore
func (r *UserRepoImpl) Create(ctx context.Context, user *models.User) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.PersistenceError("create user", apperror.ErrUserExists)
		}
		return apperror.PersistenceError("create user", err)
	}
	return nil
}

// FindByID retrieves a user by their ID
func (r *UserRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.LookupError("find user by id", err)
	}
	return &user, nil
}

// FindByUsernameAndSCMContext retrieves a user by the unique (username, scmContext) key
func (r *UserRepoImpl) FindByUsernameAndSCMContext(ctx context.Context, username, scmContext string) (*models.User, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = db.Where("username = ? AND scm_context = ?", username, scmContext).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.LookupError("find user by username and scm context", err)
	}
	return &user, nil
}

// Update persists changes to an existing user
func (r *UserRepoImpl) Update(ctx context.Context, user *models.User) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(user).Select("username", "scm_context", "token", "updated_at").Updates(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperror.PersistenceError("update user", apperror.ErrUserExists)
		}
		return apperror.PersistenceError("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.PersistenceError("update user", apperror.ErrNotFound)
	}
	return nil
}

// CountByUsernameAndSCMContext returns how many users match the key
func (r *UserRepoImpl) CountByUsernameAndSCMContext(ctx context.Context, username, scmContext string) (int64, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&models.User{}).
		Where("username = ? AND scm_context = ?", username, scmContext).
		Count(&count).Error
	if err != nil {
		return 0, apperror.LookupError("count users", err)
	}
	return count, nil
}

// Verify interface compliance at compile time
var _ repository.UserRepository = (*UserRepoImpl)(nil)
