package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field type alias for convenience
type Field = zap.Field

// String constructs a field with the given key and value
func String(key string, val string) Field {
	return zap.String(key, val)
}

// Strings constructs a field with the given key and slice of strings
func Strings(key string, val []string) Field {
	return zap.Strings(key, val)
}

// Int constructs a field with the given key and value
func Int(key string, val int) Field {
	return zap.Int(key, val)
}

// Bool constructs a field with the given key and value
func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

// Duration constructs a field with the given key and value
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Error constructs a field that lazily stores err.Error() under the key "error"
func Error(err error) Field {
	return zap.Error(err)
}

// Any takes a key and an arbitrary value and chooses the best way to represent them
func Any(key string, val any) Field {
	return zap.Any(key, val)
}

// TraceID constructs a field for trace ID (OTEL)
func TraceID(id string) Field {
	return String("trace_id", id)
}

// SpanID constructs a field for span ID (OTEL)
func SpanID(id string) Field {
	return String("span_id", id)
}

// Component constructs a field for component name
func Component(name string) Field {
	return String("component", name)
}

// Operation constructs a field for operation name
func Operation(name string) Field {
	return String("operation", name)
}

// Username constructs a field for the provisioned username
func Username(name string) Field {
	return String("username", name)
}

// SCMContext constructs a field for a source-control context
func SCMContext(name string) Field {
	return String("scm_context", name)
}

// UserID constructs a field for user ID
func UserID(id string) Field {
	return String("user_id", id)
}

// TokenID constructs a field for an issued token's ID
func TokenID(id string) Field {
	return String("token_id", id)
}

// Plugin constructs a field for a datastore or scm plugin name
func Plugin(name string) Field {
	return String("plugin", name)
}
