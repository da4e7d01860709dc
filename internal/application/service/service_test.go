package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/testuser/internal/domain/models"
	"github.com/bravo68web/testuser/internal/domain/repository"
	"github.com/bravo68web/testuser/internal/infrastructure/database"
	repoimpl "github.com/bravo68web/testuser/internal/infrastructure/repository"
	"github.com/bravo68web/testuser/internal/infrastructure/seal"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
)

const testPassword = "a-sealing-passphrase-of-32-chars-or-more"

type fakeSCM struct {
	contexts []string
	login    string
	err      error
	calls    int
}

func (f *fakeSCM) Supports(scmContext string) bool {
	for _, c := range f.contexts {
		if c == scmContext {
			return true
		}
	}
	return false
}

func (f *fakeSCM) Contexts() []string { return f.contexts }

func (f *fakeSCM) VerifyToken(context.Context, string, string) (string, error) {
	f.calls++
	return f.login, f.err
}

type fixture struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	sealer *seal.IronSealer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New("sqlite", database.Options{
		Settings: map[string]any{"path": filepath.Join(t.TempDir(), "svc.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Setup(context.Background()))

	return &fixture{
		users:  repoimpl.NewUserRepository(db),
		tokens: repoimpl.NewTokenRepository(db),
		sealer: seal.NewIronSealer(testPassword),
	}
}

func TestProvisionUserCreatesSealedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.users, f.sealer, &fakeSCM{contexts: []string{"github:github.com"}})

	user, err := svc.ProvisionUser(ctx, "alice", "github:github.com", "ghtok_abc")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "ghtok_abc", user.Token)

	stored, err := f.users.FindByUsernameAndSCMContext(ctx, "alice", "github:github.com")
	require.NoError(t, err)
	plain, err := f.sealer.Unseal(stored.Token)
	require.NoError(t, err)
	assert.Equal(t, "ghtok_abc", plain)
}

func TestProvisionUserRefreshesExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.users, f.sealer, nil)

	first, err := svc.ProvisionUser(ctx, "alice", "github:github.com", "old")
	require.NoError(t, err)
	second, err := svc.ProvisionUser(ctx, "alice", "github:github.com", "new")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := f.users.CountByUsernameAndSCMContext(ctx, "alice", "github:github.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	stored, err := f.users.FindByID(ctx, first.ID)
	require.NoError(t, err)
	plain, err := f.sealer.Unseal(stored.Token)
	require.NoError(t, err)
	assert.Equal(t, "new", plain)
}

func TestProvisionUserUnknownContextOnlyWarns(t *testing.T) {
	f := newFixture(t)
	scm := &fakeSCM{contexts: []string{"github:github.com"}}
	svc := NewUserService(f.users, f.sealer, scm)

	_, err := svc.ProvisionUser(context.Background(), "bob", "bitbucket:team", "sctoken-123")
	require.NoError(t, err)
	assert.Zero(t, scm.calls)
}

func TestProvisionUserVerifiesToken(t *testing.T) {
	ctx := context.Background()

	t.Run("matching login", func(t *testing.T) {
		f := newFixture(t)
		scm := &fakeSCM{login: "Alice"}
		svc := NewUserService(f.users, f.sealer, scm, WithTokenVerification(true))

		_, err := svc.ProvisionUser(ctx, "alice", "github:github.com", "t")
		require.NoError(t, err)
		assert.Equal(t, 1, scm.calls)
	})

	t.Run("other login", func(t *testing.T) {
		f := newFixture(t)
		svc := NewUserService(f.users, f.sealer, &fakeSCM{login: "mallory"}, WithTokenVerification(true))

		_, err := svc.ProvisionUser(ctx, "alice", "github:github.com", "t")
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindSCM))

		_, err = f.users.FindByUsernameAndSCMContext(ctx, "alice", "github:github.com")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("provider error", func(t *testing.T) {
		f := newFixture(t)
		boom := apperrors.SCMError("rejected", errors.New("401"))
		svc := NewUserService(f.users, f.sealer, &fakeSCM{err: boom}, WithTokenVerification(true))

		_, err := svc.ProvisionUser(ctx, "alice", "github:github.com", "t")
		assert.ErrorIs(t, err, boom)
	})
}

func TestProvisionUserSealingFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, seal.NewIronSealer("short"), nil)

	_, err := svc.ProvisionUser(context.Background(), "alice", "github:github.com", "t")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSealing))
}

func TestProvisionUserStorageNotReady(t *testing.T) {
	db, err := database.New("sqlite", database.Options{
		Settings: map[string]any{"path": filepath.Join(t.TempDir(), "unused.db")},
	})
	require.NoError(t, err)
	svc := NewUserService(repoimpl.NewUserRepository(db), seal.NewIronSealer(testPassword), nil)

	_, err = svc.ProvisionUser(context.Background(), "alice", "github:github.com", "t")
	assert.True(t, apperrors.IsKind(err, apperrors.KindStorageUnavailable))
}

func TestIssueFunctionalToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := &models.User{Username: "alice", SCMContext: "github:github.com", Token: "sealed"}
	require.NoError(t, f.users.Create(ctx, user))

	svc := NewTokenService(f.tokens, testPassword)
	first, err := svc.IssueFunctionalToken(ctx, user.ID)
	require.NoError(t, err)
	second, err := svc.IssueFunctionalToken(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, models.FunctionalTestTokenName, first.Name)
	assert.NotEmpty(t, first.Value)
	assert.NotEqual(t, first.Value, second.Value)
	assert.NotEqual(t, first.Value, first.Hash)

	stored, err := f.tokens.FindByHash(ctx, svc.HashValue(first.Value))
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Empty(t, stored.Value)

	count, err := f.tokens.CountByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestIssueFunctionalTokenUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := NewTokenService(f.tokens, testPassword).IssueFunctionalToken(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPersistence))
}

func TestHashValue(t *testing.T) {
	plain := NewTokenService(nil, "")
	keyed := NewTokenService(nil, testPassword)

	assert.Len(t, plain.HashValue("v"), 64)
	assert.Len(t, keyed.HashValue("v"), 64)
	assert.NotEqual(t, plain.HashValue("v"), keyed.HashValue("v"))
	assert.Equal(t, keyed.HashValue("v"), NewTokenService(nil, testPassword).HashValue("v"))
}
