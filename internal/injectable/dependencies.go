package injectable

import (
	"io"

	"github.com/bravo68web/testuser/internal/application/service"
	"github.com/bravo68web/testuser/internal/application/workflow"
	"github.com/bravo68web/testuser/internal/config"
	"github.com/bravo68web/testuser/internal/infrastructure/database"
	"github.com/bravo68web/testuser/internal/infrastructure/repository"
	"github.com/bravo68web/testuser/internal/infrastructure/scm"
	"github.com/bravo68web/testuser/internal/infrastructure/seal"
)

// Dependencies holds everything a create-test-user run needs
type Dependencies struct {
	Database *database.Database
	SCM      *scm.Router
	Sealer   *seal.IronSealer

	// Services
	UserService  *service.UserService
	TokenService *service.TokenService
}

// Assemble builds the object graph from cfg. It performs no I/O; the
// datastore connects on its first Setup.
func Assemble(cfg *config.Config) (*Dependencies, error) {
	ecosystem := make(map[string]any, len(cfg.Ecosystem)+1)
	for k, v := range cfg.Ecosystem {
		ecosystem[k] = v
	}
	ecosystem["api"] = cfg.HTTPD.URI

	db, err := database.New(cfg.Datastore.Plugin, database.Options{
		Ecosystem: ecosystem,
		Settings:  cfg.Datastore.Settings,
	})
	if err != nil {
		return nil, err
	}

	router, err := scm.NewRouter(cfg.SCMs)
	if err != nil {
		return nil, err
	}

	sealer := seal.NewIronSealer(cfg.Auth.EncryptionPassword)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	return &Dependencies{
		Database: db,
		SCM:      router,
		Sealer:   sealer,
		UserService: service.NewUserService(userRepo, sealer, router,
			service.WithTokenVerification(cfg.Auth.VerifyScmToken),
		),
		TokenService: service.NewTokenService(tokenRepo, cfg.Auth.EncryptionPassword),
	}, nil
}

// Workflow returns the run sequence reporting to out
func (d *Dependencies) Workflow(out io.Writer) *workflow.Workflow {
	return workflow.New(d.Database, d.UserService, d.TokenService, out)
}

// Close releases the datastore connection
func (d *Dependencies) Close() error {
	return d.Database.Close()
}
