package database

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bravo68web/testuser/internal/domain/models"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
	"github.com/bravo68web/testuser/pkg/logger"
)

// Database is the datastore handle. It is cheap to construct; nothing
// touches the backend until Setup runs.
type Database struct {
	plugin    Plugin
	ecosystem map[string]any
	log       *logger.Logger

	once     sync.Once
	db       *gorm.DB
	setupErr error
}

// New builds a datastore handle for the named plugin without connecting
func New(pluginName string, opts Options) (*Database, error) {
	factory, err := lookup(pluginName)
	if err != nil {
		return nil, err
	}

	plugin, err := factory(opts)
	if err != nil {
		return nil, err
	}

	ecosystem := make(map[string]any, len(opts.Ecosystem))
	for k, v := range opts.Ecosystem {
		ecosystem[k] = v
	}

	return &Database{
		plugin:    plugin,
		ecosystem: ecosystem,
		log:       logger.Get().WithFields(logger.Component("datastore"), logger.Plugin(plugin.Name())),
	}, nil
}

// Plugin returns the name of the selected backend
func (d *Database) Plugin() string {
	return d.plugin.Name()
}

// Ecosystem returns the ecosystem settings the handle was built with
func (d *Database) Ecosystem() map[string]any {
	return d.ecosystem
}

// Setup connects to the backend and migrates the schema. It runs once;
// later calls return the first result.
func (d *Database) Setup(ctx context.Context) error {
	d.once.Do(func() {
		d.setupErr = d.setup(ctx)
	})
	return d.setupErr
}

func (d *Database) setup(ctx context.Context) error {
	log := d.log.WithContext(ctx)
	log.Info("Setting up datastore...", d.plugin.Fields()...)

	if err := d.plugin.Prepare(ctx); err != nil {
		return apperrors.StorageUnavailable("failed to prepare datastore", err)
	}

	db, err := gorm.Open(d.plugin.Dialector(), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		PrepareStmt:    true,
	})
	if err != nil {
		log.Error("Failed to connect to datastore", logger.Error(err))
		return apperrors.StorageUnavailable("failed to connect to datastore", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return apperrors.StorageUnavailable("failed to get underlying SQL DB", err)
	}
	d.plugin.ConfigurePool(sqlDB)

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Error("Datastore ping failed", logger.Error(err))
		_ = sqlDB.Close()
		return apperrors.StorageUnavailable("failed to ping datastore", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Token{}); err != nil {
		log.Error("Datastore migration failed", logger.Error(err))
		_ = sqlDB.Close()
		return apperrors.StorageUnavailable("failed to migrate datastore schema", err)
	}

	d.db = db
	log.Info("Datastore ready", logger.Any("ecosystem_api", d.ecosystem["api"]))
	return nil
}

// Conn returns a context-bound session, or StorageUnavailable if Setup has
// not completed successfully
func (d *Database) Conn(ctx context.Context) (*gorm.DB, error) {
	if d.db == nil {
		return nil, apperrors.StorageUnavailable("datastore used before setup", apperrors.ErrNotReady)
	}
	return d.db.WithContext(ctx), nil
}

// Ping checks the datastore connection
func (d *Database) Ping(ctx context.Context) error {
	if d.db == nil {
		return apperrors.ErrNotReady
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the datastore connection if one was opened
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		d.log.Error("Failed to close datastore connection", logger.Error(err))
		return err
	}

	d.log.Debug("Datastore connection closed")
	return nil
}
