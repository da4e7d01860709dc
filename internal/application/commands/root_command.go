package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/testuser/internal/application/workflow"
	"github.com/bravo68web/testuser/internal/config"
	"github.com/bravo68web/testuser/internal/injectable"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
	"github.com/bravo68web/testuser/pkg/logger"
)

const (
	argsUsage      = "<username> <scmContext> <gitToken>"
	defaultVersion = "dev"
)

// ConfigLoader reads the configuration at path ("" searches the defaults)
type ConfigLoader func(path string) (*config.Config, error)

// Assembler builds the run's dependencies from configuration
type Assembler func(cfg *config.Config) (*injectable.Dependencies, error)

// CommandRegistry builds the create-test-user command
type CommandRegistry struct {
	loadConfig ConfigLoader
	assemble   Assembler
	version    string
	stdout     io.Writer
	stderr     io.Writer
}

// Option customises a CommandRegistry
type Option func(*CommandRegistry)

// WithConfigLoader replaces config.Load
func WithConfigLoader(fn ConfigLoader) Option {
	return func(r *CommandRegistry) { r.loadConfig = fn }
}

// WithAssembler replaces injectable.Assemble
func WithAssembler(fn Assembler) Option {
	return func(r *CommandRegistry) { r.assemble = fn }
}

// WithVersion sets the build version shown by --version and reported as
// service.version on exported logs
func WithVersion(version string) Option {
	return func(r *CommandRegistry) {
		if version != "" {
			r.version = version
		}
	}
}

func NewCommandRegistry(stdout, stderr io.Writer, opts ...Option) *CommandRegistry {
	r := &CommandRegistry{
		loadConfig: config.Load,
		assemble:   injectable.Assemble,
		version:    defaultVersion,
		stdout:     stdout,
		stderr:     stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CommandRegistry) RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:      "create-test-user",
		Usage:     "Create or refresh a test user and issue it a functional test token",
		ArgsUsage: argsUsage,
		Version:   r.version,
		Writer:    r.stdout,
		ErrWriter: r.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
				Sources: cli.EnvVars("TESTUSER_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override logging.level (debug, info, warn, error)",
			},
		},
		HideHelpCommand: true,
		Action:          r.createTestUser,
		OnUsageError: func(_ context.Context, cmd *cli.Command, err error, _ bool) error {
			r.printUsage(cmd)
			return apperrors.UsageError(err.Error())
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

// Run executes the command and returns the process exit status
func (r *CommandRegistry) Run(ctx context.Context, args []string) int {
	err := r.RegisterCLI().Run(ctx, args)
	if err != nil {
		fmt.Fprintf(r.stderr, "error: %v\n", err)
	}
	return apperrors.ExitCode(err)
}

// Run executes create-test-user with the default loaders
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	return NewCommandRegistry(stdout, stderr, opts...).Run(ctx, args)
}

func (r *CommandRegistry) printUsage(cmd *cli.Command) {
	fmt.Fprintf(r.stdout, "Usage: %s [--config FILE] %s\n", cmd.Name, argsUsage)
}

func (r *CommandRegistry) createTestUser(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 3 {
		r.printUsage(cmd)
		return apperrors.UsageError(fmt.Sprintf("expected 3 arguments, got %d", cmd.NArg()))
	}
	args := cmd.Args().Slice()
	if strings.TrimSpace(args[0]) == "" || strings.TrimSpace(args[1]) == "" {
		r.printUsage(cmd)
		return apperrors.UsageError("username and scmContext must not be empty")
	}

	cfg, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	log, err := newLogger(ctx, cfg, r.stderr, r.version)
	if err != nil {
		return apperrors.ConfigurationError("failed to initialise logging", err)
	}
	prev := logger.Get()
	logger.SetGlobal(log)
	defer func() {
		_ = log.Close()
		logger.SetGlobal(prev)
	}()

	deps, err := r.assemble(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	_, err = deps.Workflow(r.stdout).Run(ctx, workflow.Input{
		Username:   args[0],
		SCMContext: args[1],
		GitToken:   args[2],
	})
	if err != nil {
		log.WithError(err).Error("create-test-user failed",
			logger.String("kind", string(apperrors.KindOf(err))),
		)
	}
	return err
}
