package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/testuser/internal/domain/models"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
)

func newSQLite(t *testing.T) *Database {
	t.Helper()
	db, err := New("sqlite", Options{
		Ecosystem: map[string]any{"api": "https://api.example.com"},
		Settings:  map[string]any{"path": filepath.Join(t.TempDir(), "datastore.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDoesNotTouchBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-created")
	db, err := New("sqlite", Options{Settings: map[string]any{"path": filepath.Join(dir, "x.db")}})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Plugin())

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewUnknownPlugin(t *testing.T) {
	_, err := New("mongodb", Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
	assert.ErrorIs(t, err, apperrors.ErrUnknownPlugin)
}

func TestNewPostgresValidatesSettings(t *testing.T) {
	_, err := New("postgres", Options{Settings: map[string]any{"host": "", "port": "5432"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))

	db, err := New("postgres", Options{Settings: map[string]any{"host": "db", "port": "6543", "dbname": "sd"}})
	require.NoError(t, err)
	assert.Equal(t, "postgres", db.Plugin())
}

func TestPostgresDSN(t *testing.T) {
	s := PostgresSettings{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "sd", SSLMode: "require"}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=sd sslmode=require application_name=create-test-user",
		s.DSN(),
	)
}

func TestConnBeforeSetup(t *testing.T) {
	db := newSQLite(t)

	_, err := db.Conn(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStorageUnavailable))
	assert.ErrorIs(t, err, apperrors.ErrNotReady)
}

func TestSetupMigratesSchema(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)

	require.NoError(t, db.Setup(ctx))
	require.NoError(t, db.Ping(ctx))

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	assert.True(t, conn.Migrator().HasTable(&models.User{}))
	assert.True(t, conn.Migrator().HasTable(&models.Token{}))
	assert.True(t, conn.Migrator().HasIndex(&models.User{}, "idx_users_username_scm_context"))
	assert.Equal(t, "https://api.example.com", db.Ecosystem()["api"])
}

func TestSetupRunsOnce(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)

	require.NoError(t, db.Setup(ctx))
	first := db.db

	require.NoError(t, db.Setup(ctx))
	assert.Same(t, first, db.db)
}

func TestSetupFailureIsStorageUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0o600))

	db, err := New("sqlite", Options{Settings: map[string]any{"path": filepath.Join(blocker, "x.db")}})
	require.NoError(t, err)

	err = db.Setup(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStorageUnavailable))

	// The failure is sticky for the rest of the run.
	assert.Equal(t, err, db.Setup(context.Background()))
	_, connErr := db.Conn(context.Background())
	assert.Error(t, connErr)
}

func TestRegisterCustomPlugin(t *testing.T) {
	boom := errors.New("no backend")
	Register("broken", func(Options) (Plugin, error) { return nil, boom })
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, "broken")
		registryMu.Unlock()
	})

	assert.Contains(t, Plugins(), "broken")
	_, err := New("broken", Options{})
	assert.ErrorIs(t, err, boom)
}
