// Package workflow runs the create-test-user sequence: set up the datastore,
// provision the user, issue a token and report it.
package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bravo68web/testuser/internal/domain/models"
	"github.com/bravo68web/testuser/pkg/logger"
)

// Gate prepares the datastore before any entity operation
type Gate interface {
	Setup(ctx context.Context) error
}

// UserProvisioner creates or refreshes a user
type UserProvisioner interface {
	ProvisionUser(ctx context.Context, username, scmContext, secret string) (*models.User, error)
}

// TokenIssuer issues a token for a user
type TokenIssuer interface {
	IssueFunctionalToken(ctx context.Context, userID uuid.UUID) (*models.Token, error)
}

// Input is one run's positional arguments
type Input struct {
	Username   string
	SCMContext string
	GitToken   string
}

// Result is what a successful run produced
type Result struct {
	User  *models.User
	Token *models.Token
}

// Workflow wires the steps together
type Workflow struct {
	gate   Gate
	users  UserProvisioner
	tokens TokenIssuer
	out    io.Writer
	log    *logger.Logger
}

// New creates a Workflow that reports to out
func New(gate Gate, users UserProvisioner, tokens TokenIssuer, out io.Writer) *Workflow {
	return &Workflow{
		gate:   gate,
		users:  users,
		tokens: tokens,
		out:    out,
		log:    logger.Get().WithFields(logger.Component("workflow")),
	}
}

// Run executes the steps in order and stops at the first failure
func (w *Workflow) Run(ctx context.Context, in Input) (*Result, error) {
	log := w.log.WithContext(ctx).WithFields(logger.Username(in.Username), logger.SCMContext(in.SCMContext))

	start := time.Now()

	log.Debug("Setting up datastore", logger.Operation("setup"))
	if err := w.gate.Setup(ctx); err != nil {
		return nil, err
	}

	log.Debug("Provisioning user", logger.Operation("provision"))
	user, err := w.users.ProvisionUser(ctx, in.Username, in.SCMContext, in.GitToken)
	if err != nil {
		return nil, err
	}

	log.Debug("Issuing token", logger.Operation("issue"))
	token, err := w.tokens.IssueFunctionalToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if _, err := fmt.Fprintf(w.out, "Token created for user %s: %s\n", in.Username, token.Value); err != nil {
		return nil, err
	}

	log.Info("Run complete",
		logger.UserID(user.ID.String()),
		logger.TokenID(token.ID.String()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return &Result{User: user, Token: token}, nil
}
