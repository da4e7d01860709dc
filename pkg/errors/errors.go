package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common error cases
var (
	// ErrNotFound indicates the requested record was not found
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserExists indicates a user with the same username and scm context already exists
	ErrUserExists = errors.New("user already exists")

	// ErrNotReady indicates the datastore was used before setup completed
	ErrNotReady = errors.New("datastore not set up")

	// ErrUnknownPlugin indicates a plugin name has no registered implementation
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrUnknownSCMContext indicates no scm is configured for a context
	ErrUnknownSCMContext = errors.New("unknown scm context")

	// ErrPasswordTooShort indicates the sealing passphrase is below the minimum length
	ErrPasswordTooShort = errors.New("password too short")
)

// Kind classifies failures of the provisioning run
type Kind string

const (
	KindUsage              Kind = "usage"
	KindConfiguration      Kind = "configuration"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindLookup             Kind = "lookup"
	KindSealing            Kind = "sealing"
	KindPersistence        Kind = "persistence"
	KindSCM                Kind = "scm"
	KindInternal           Kind = "internal"
)

// AppError represents an application-level error with additional context
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given kind, message, and underlying error
func NewAppError(kind Kind, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// UsageError reports a malformed invocation
func UsageError(message string) *AppError {
	return NewAppError(KindUsage, message, ErrInvalidInput)
}

// ConfigurationError reports missing or invalid settings
func ConfigurationError(message string, err error) *AppError {
	return NewAppError(KindConfiguration, message, err)
}

// StorageUnavailable reports a datastore that could not be initialised
func StorageUnavailable(message string, err error) *AppError {
	return NewAppError(KindStorageUnavailable, message, err)
}

// LookupError reports a failed datastore read
func LookupError(operation string, err error) *AppError {
	return NewAppError(KindLookup, fmt.Sprintf("datastore %s failed", operation), err)
}

// SealingError reports a failure of the encryption primitive
func SealingError(message string, err error) *AppError {
	return NewAppError(KindSealing, message, err)
}

// PersistenceError reports a failed create or update
func PersistenceError(operation string, err error) *AppError {
	return NewAppError(KindPersistence, fmt.Sprintf("datastore %s failed", operation), err)
}

// SCMError reports a failure talking to a source-control provider
func SCMError(message string, err error) *AppError {
	return NewAppError(KindSCM, message, err)
}

// KindOf returns the kind of the outermost AppError in the chain, or
// KindInternal for anything else
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind checks whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ExitCode maps an error to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsKind(err, KindUsage):
		return 2
	default:
		return 1
	}
}
