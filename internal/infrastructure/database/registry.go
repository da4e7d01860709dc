package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"gorm.io/gorm"

	apperrors "github.com/bravo68web/testuser/pkg/errors"
	"github.com/bravo68web/testuser/pkg/logger"
)

// Options is what every datastore plugin is constructed from: the shared
// ecosystem settings plus the plugin's own section of the datastore config
type Options struct {
	Ecosystem map[string]any
	Settings  map[string]any
}

// Plugin is one persistence backend
type Plugin interface {
	// Name returns the registry key of the plugin
	Name() string

	// Prepare runs any local I/O the backend needs before connecting
	Prepare(ctx context.Context) error

	// Dialector returns the GORM dialector for the backend
	Dialector() gorm.Dialector

	// ConfigurePool applies connection pool settings
	ConfigurePool(db *sql.DB)

	// Fields describes the connection for logging, without secrets
	Fields() []logger.Field
}

// Factory builds a plugin from its options; it must not perform I/O
type Factory func(opts Options) (Plugin, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"postgres": newPostgresPlugin,
		"sqlite":   newSQLitePlugin,
	}
)

// Register adds or replaces a datastore plugin
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Plugins returns the registered plugin names
func Plugins() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return pluginNamesLocked()
}

func lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := registry[name]
	if !ok {
		return nil, apperrors.ConfigurationError(
			fmt.Sprintf("datastore plugin %q is not available (have %v)", name, pluginNamesLocked()),
			apperrors.ErrUnknownPlugin,
		)
	}
	return factory, nil
}

func pluginNamesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeSettings decodes a plugin's settings map into a typed struct
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(settings)
}
