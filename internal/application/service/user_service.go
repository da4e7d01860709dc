package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bravo68web/testuser/internal/domain/models"
	"github.com/bravo68web/testuser/internal/domain/repository"
	domainservice "github.com/bravo68web/testuser/internal/domain/service"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
	"github.com/bravo68web/testuser/pkg/logger"
)

// UserService creates or refreshes the user a test run authenticates as
type UserService struct {
	userRepo repository.UserRepository
	sealer   domainservice.Sealer
	scm      domainservice.SCMRouter
	verify   bool
	log      *logger.Logger
}

// UserServiceOption customises a UserService
type UserServiceOption func(*UserService)

// WithTokenVerification checks every secret against the scm provider before
// it is stored
func WithTokenVerification(enabled bool) UserServiceOption {
	return func(s *UserService) {
		s.verify = enabled
	}
}

// NewUserService creates a new UserService instance
func NewUserService(
	userRepo repository.UserRepository,
	sealer domainservice.Sealer,
	scm domainservice.SCMRouter,
	opts ...UserServiceOption,
) *UserService {
	s := &UserService{
		userRepo: userRepo,
		sealer:   sealer,
		scm:      scm,
		log:      logger.Get().WithFields(logger.Component("user-service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProvisionUser makes sure (username, scmContext) exists with secret sealed
// as its scm token. An existing user keeps its id.
func (s *UserService) ProvisionUser(ctx context.Context, username, scmContext, secret string) (*models.User, error) {
	log := s.log.WithContext(ctx).WithFields(logger.Username(username), logger.SCMContext(scmContext))

	user, err := s.userRepo.FindByUsernameAndSCMContext(ctx, username, scmContext)
	switch {
	case apperrors.IsNotFound(err):
		user = nil
	case err != nil:
		log.Error("Failed to look up user", logger.Error(err))
		return nil, err
	}

	if err := s.checkSCM(ctx, log, username, scmContext, secret); err != nil {
		return nil, err
	}

	sealed, err := s.sealer.Seal(secret)
	if err != nil {
		log.Error("Failed to seal scm token", logger.Error(err))
		return nil, err
	}

	if user == nil {
		user = &models.User{
			Username:   username,
			SCMContext: scmContext,
			Token:      sealed,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			log.Error("Failed to create user", logger.Error(err))
			return nil, err
		}
		log.Info("User provisioned", logger.UserID(user.ID.String()), logger.Bool("created", true))
		return user, nil
	}

	user.Token = sealed
	if err := s.userRepo.Update(ctx, user); err != nil {
		log.Error("Failed to update user", logger.UserID(user.ID.String()), logger.Error(err))
		return nil, err
	}
	log.Info("User provisioned", logger.UserID(user.ID.String()), logger.Bool("created", false))
	return user, nil
}

func (s *UserService) checkSCM(ctx context.Context, log *logger.Logger, username, scmContext, secret string) error {
	if s.scm == nil {
		return nil
	}

	if !s.verify {
		if !s.scm.Supports(scmContext) {
			log.Warn("No scm is configured for this context",
				logger.Strings("configured", s.scm.Contexts()),
			)
		}
		return nil
	}

	login, err := s.scm.VerifyToken(ctx, scmContext, secret)
	if err != nil {
		log.Error("SCM token verification failed", logger.Error(err))
		return err
	}
	if !strings.EqualFold(login, username) {
		return apperrors.SCMError(
			fmt.Sprintf("token for %s belongs to %q, not %q", scmContext, login, username), nil,
		)
	}
	log.Debug("SCM token verified")
	return nil
}
