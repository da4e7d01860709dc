package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"

	"github.com/google/uuid"

	"github.com/bravo68web/testuser/internal/domain/models"
	"github.com/bravo68web/testuser/internal/domain/repository"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
	"github.com/bravo68web/testuser/pkg/logger"
)

const tokenBytes = 32

// TokenService issues API tokens
type TokenService struct {
	tokenRepo repository.TokenRepository
	hashKey   []byte
	random    io.Reader
	log       *logger.Logger
}

// NewTokenService creates a new TokenService instance. hashKey keys the
// stored token hash; an empty key falls back to plain SHA-256.
func NewTokenService(tokenRepo repository.TokenRepository, hashKey string) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		hashKey:   []byte(hashKey),
		random:    rand.Reader,
		log:       logger.Get().WithFields(logger.Component("token-service")),
	}
}

// IssueFunctionalToken creates a new "Functional test token" for userID.
// Every call yields a distinct token; earlier ones stay valid.
func (s *TokenService) IssueFunctionalToken(ctx context.Context, userID uuid.UUID) (*models.Token, error) {
	value, err := s.generateValue()
	if err != nil {
		return nil, apperrors.PersistenceError("token create", err)
	}

	token := &models.Token{
		Name:   models.FunctionalTestTokenName,
		UserID: userID,
		Hash:   s.HashValue(value),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		s.log.WithContext(ctx).Error("Failed to create token",
			logger.UserID(userID.String()),
			logger.Error(err),
		)
		return nil, err
	}
	token.Value = value

	s.log.WithContext(ctx).Info("Token issued",
		logger.UserID(userID.String()),
		logger.TokenID(token.ID.String()),
	)
	return token, nil
}

// HashValue returns the stored form of a plaintext token value
func (s *TokenService) HashValue(value string) string {
	if len(s.hashKey) == 0 {
		sum := sha256.Sum256([]byte(value))
		return hex.EncodeToString(sum[:])
	}
	h := hmac.New(sha256.New, s.hashKey)
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *TokenService) generateValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
