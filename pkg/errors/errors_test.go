package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"configuration", ConfigurationError("missing auth", nil), KindConfiguration},
		{"storage", StorageUnavailable("setup", errors.New("refused")), KindStorageUnavailable},
		{"lookup", LookupError("find user", errors.New("boom")), KindLookup},
		{"sealing", SealingError("seal", ErrPasswordTooShort), KindSealing},
		{"persistence", PersistenceError("create token", errors.New("fk")), KindPersistence},
		{"scm", SCMError("verify", errors.New("401")), KindSCM},
		{"wrapped", fmt.Errorf("provision: %w", LookupError("find user", nil)), KindLookup},
		{"plain", errors.New("plain"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestAppErrorMessageIncludesCause(t *testing.T) {
	err := PersistenceError("create user", errors.New("UNIQUE constraint failed: users.username"))
	assert.Equal(t, "datastore create user failed: UNIQUE constraint failed: users.username", err.Error())

	bare := ConfigurationError("missing configuration group \"auth\"", nil)
	assert.Equal(t, "missing configuration group \"auth\"", bare.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	err := SealingError("seal scm token", ErrPasswordTooShort)
	assert.True(t, errors.Is(err, ErrPasswordTooShort))
	assert.False(t, IsNotFound(err))

	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrNotFound)))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(UsageError("wrong number of arguments")))
	assert.Equal(t, 1, ExitCode(StorageUnavailable("setup", nil)))
	assert.Equal(t, 1, ExitCode(errors.New("unexpected")))
}
