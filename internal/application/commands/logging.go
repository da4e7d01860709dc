package commands

import (
	"context"
	"io"

	"github.com/bravo68web/testuser/internal/config"
	"github.com/bravo68web/testuser/internal/infrastructure/otel"
	"github.com/bravo68web/testuser/pkg/logger"
)

func newLogger(ctx context.Context, cfg *config.Config, stderr io.Writer, version string) (*logger.Logger, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Output = logger.OutputType(cfg.Logging.Output)
	logCfg.Writer = stderr
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}

	if logCfg.Output != logger.OutputOTEL {
		return logger.New(logCfg)
	}

	provider, err := otel.NewProvider(ctx, cfg.Telemetry, otel.WithVersion(version))
	if err != nil {
		return nil, err
	}
	return otel.NewLogger(logCfg, provider), nil
}
