package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/bravo68web/testuser/pkg/errors"
	"github.com/bravo68web/testuser/pkg/logger"
)

// PostgresSettings is the datastore.postgres section
type PostgresSettings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// DSN returns the database connection string
func (s *PostgresSettings) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=create-test-user",
		s.Host, s.Port, s.User, s.Password, s.DBName, s.SSLMode,
	)
}

type postgresPlugin struct {
	settings PostgresSettings
}

func newPostgresPlugin(opts Options) (Plugin, error) {
	s := PostgresSettings{
		Host:            "localhost",
		Port:            5432,
		User:            "screwdriver",
		DBName:          "screwdriver",
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 10 * time.Minute,
	}
	if err := decodeSettings(opts.Settings, &s); err != nil {
		return nil, apperrors.ConfigurationError("invalid datastore.postgres settings", err)
	}
	if s.Host == "" || s.DBName == "" {
		return nil, apperrors.ConfigurationError("datastore.postgres requires host and dbname", nil)
	}
	return &postgresPlugin{settings: s}, nil
}

func (p *postgresPlugin) Name() string { return "postgres" }

func (p *postgresPlugin) Prepare(context.Context) error { return nil }

func (p *postgresPlugin) Dialector() gorm.Dialector {
	return postgres.Open(p.settings.DSN())
}

func (p *postgresPlugin) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(p.settings.MaxOpenConns)
	db.SetMaxIdleConns(p.settings.MaxIdleConns)
	db.SetConnMaxLifetime(p.settings.ConnMaxLifetime)
}

func (p *postgresPlugin) Fields() []logger.Field {
	return []logger.Field{
		logger.String("host", p.settings.Host),
		logger.Int("port", p.settings.Port),
		logger.String("database", p.settings.DBName),
		logger.String("user", p.settings.User),
		logger.String("sslmode", p.settings.SSLMode),
	}
}

// SQLiteSettings is the datastore.sqlite section
type SQLiteSettings struct {
	Path string `mapstructure:"path"`
}

type sqlitePlugin struct {
	settings SQLiteSettings
}

func newSQLitePlugin(opts Options) (Plugin, error) {
	s := SQLiteSettings{Path: "./data/create-test-user.db"}
	if err := decodeSettings(opts.Settings, &s); err != nil {
		return nil, apperrors.ConfigurationError("invalid datastore.sqlite settings", err)
	}
	if s.Path == "" {
		return nil, apperrors.ConfigurationError("datastore.sqlite.path is required", nil)
	}
	return &sqlitePlugin{settings: s}, nil
}

func (p *sqlitePlugin) Name() string { return "sqlite" }

func (p *sqlitePlugin) Prepare(context.Context) error {
	dir := filepath.Dir(p.settings.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func (p *sqlitePlugin) Dialector() gorm.Dialector {
	return sqlite.Open(p.settings.Path + "?_foreign_keys=1&_busy_timeout=5000")
}

// A single connection keeps pragmas and writes consistent.
func (p *sqlitePlugin) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
}

func (p *sqlitePlugin) Fields() []logger.Field {
	return []logger.Field{logger.String("path", p.settings.Path)}
}
