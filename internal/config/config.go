package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/bravo68web/testuser/pkg/errors"
)

// RequiredGroups are the top-level sections every run needs
var RequiredGroups = []string{"auth", "httpd", "ecosystem", "datastore", "scms"}

// Config represents the complete application configuration
type Config struct {
	Auth      AuthConfig      `mapstructure:"auth"`
	HTTPD     HTTPDConfig     `mapstructure:"httpd"`
	Ecosystem map[string]any  `mapstructure:"ecosystem"`
	Datastore DatastoreConfig `mapstructure:"datastore"`
	SCMs      SCMs            `mapstructure:"scms"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AuthConfig holds the secrets used to seal credentials
type AuthConfig struct {
	EncryptionPassword string `mapstructure:"encryptionPassword"`
	// VerifyScmToken checks the git token against the provider before sealing it
	VerifyScmToken bool `mapstructure:"verifyScmToken"`
}

// HTTPDConfig holds the public API settings
type HTTPDConfig struct {
	URI string `mapstructure:"uri"`
}

// DatastoreConfig selects the persistence plugin
type DatastoreConfig struct {
	Plugin string `mapstructure:"plugin"`
	// Settings is the section named after Plugin, e.g. datastore.postgres
	Settings map[string]any `mapstructure:"-"`
}

// SCMConfig configures one source-control backend
type SCMConfig struct {
	Plugin string         `mapstructure:"plugin"`
	Config map[string]any `mapstructure:"config"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `mapstructure:"level"`  // debug, info, warn, error
	Output   string `mapstructure:"output"` // console, file, otel
	Format   string `mapstructure:"format"` // json, console
	FilePath string `mapstructure:"filePath"`
}

// TelemetryConfig holds the OTLP log exporter settings used when logging.output is otel
type TelemetryConfig struct {
	Endpoint    string            `mapstructure:"endpoint"`
	UseHTTP     bool              `mapstructure:"useHttp"`
	Insecure    bool              `mapstructure:"insecure"`
	ServiceName string            `mapstructure:"serviceName"`
	Environment string            `mapstructure:"environment"`
	Headers     map[string]string `mapstructure:"headers"`
}

// Load reads configuration from file and environment variables
// It supports loading from:
// 1. Explicit file path (must exist when given)
// 2. Common filesystem locations
// 3. Environment variables (always applied as overrides)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("TESTUSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, apperrors.ConfigurationError("config file not found", err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.ConfigurationError("failed to read config file", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/create-test-user")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, apperrors.ConfigurationError("failed to read config file", err)
			}
			return nil, apperrors.ConfigurationError(
				"no config file found in ., ./config or /etc/create-test-user", err,
			)
		}
	}

	overrideFromEnv(v)

	if missing := missingGroups(v); len(missing) > 0 {
		return nil, apperrors.ConfigurationError(
			fmt.Sprintf("missing configuration group(s): %s", strings.Join(missing, ", ")), nil,
		)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.ConfigurationError("failed to unmarshal config", err)
	}

	if cfg.Datastore.Plugin != "" {
		cfg.Datastore.Settings = v.GetStringMap("datastore." + cfg.Datastore.Plugin)
	}
	if cfg.Ecosystem == nil {
		cfg.Ecosystem = map[string]any{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults only covers optional sections; required groups must come from the file or env
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "console")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.filePath", "./logs/create-test-user.log")

	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.useHttp", false)
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.serviceName", "create-test-user")
	v.SetDefault("telemetry.environment", "test")
}

// overrideFromEnv handles special environment variable overrides
func overrideFromEnv(v *viper.Viper) {
	if pass := os.Getenv("TESTUSER_ENCRYPTION_PASSWORD"); pass != "" {
		v.Set("auth.encryptionPassword", pass)
	}

	if dbPass := os.Getenv("TESTUSER_DB_PASSWORD"); dbPass != "" {
		v.Set("datastore.postgres.password", dbPass)
	}
}

func missingGroups(v *viper.Viper) []string {
	var missing []string
	for _, group := range RequiredGroups {
		if !v.IsSet(group) {
			missing = append(missing, group)
		}
	}
	return missing
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Auth.EncryptionPassword == "" {
		return apperrors.ConfigurationError("auth.encryptionPassword is required", nil)
	}

	if c.HTTPD.URI == "" {
		return apperrors.ConfigurationError("httpd.uri is required", nil)
	}
	u, err := url.Parse(c.HTTPD.URI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.ConfigurationError(fmt.Sprintf("invalid httpd.uri: %q", c.HTTPD.URI), err)
	}

	if c.Datastore.Plugin == "" {
		return apperrors.ConfigurationError("datastore.plugin is required", nil)
	}

	if len(c.SCMs) == 0 {
		return apperrors.ConfigurationError("at least one scm must be configured under scms", nil)
	}
	for name, scm := range c.SCMs {
		if scm.Plugin == "" {
			return apperrors.ConfigurationError(fmt.Sprintf("scms.%s.plugin is required", name), nil)
		}
	}

	switch c.Logging.Output {
	case "console", "file", "otel":
	default:
		return apperrors.ConfigurationError(fmt.Sprintf("invalid logging output: %s", c.Logging.Output), nil)
	}

	return nil
}

// SCMs maps a configured scm name to its plugin settings
type SCMs map[string]SCMConfig

// Names returns the configured scm keys in a stable order
func (s SCMs) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
