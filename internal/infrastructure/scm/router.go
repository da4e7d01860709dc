// Package scm routes scm contexts to configured source-control plugins.
package scm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bravo68web/testuser/internal/config"
	"github.com/bravo68web/testuser/internal/domain/service"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
	"github.com/bravo68web/testuser/pkg/logger"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"github":    factoryFor(providers["github"]),
		"gitlab":    factoryFor(providers["gitlab"]),
		"bitbucket": factoryFor(providers["bitbucket"]),
	}
)

// Register adds or replaces an scm plugin
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Router dispatches scm operations by context
type Router struct {
	plugins map[string]Plugin
	log     *logger.Logger
}

// NewRouter builds one plugin per configured scm; no network I/O happens here
func NewRouter(scms config.SCMs) (*Router, error) {
	r := &Router{
		plugins: make(map[string]Plugin, len(scms)),
		log:     logger.Get().WithFields(logger.Component("scm")),
	}

	for _, name := range scms.Names() {
		cfg := scms[name]
		factory, ok := lookup(cfg.Plugin)
		if !ok {
			return nil, apperrors.ConfigurationError(
				fmt.Sprintf("scm %q uses unknown plugin %q", name, cfg.Plugin),
				apperrors.ErrUnknownPlugin,
			)
		}

		settings, err := decodeSettings(cfg.Config)
		if err != nil {
			return nil, apperrors.ConfigurationError(fmt.Sprintf("invalid config for scm %q", name), err)
		}

		plugin, err := factory(settings)
		if err != nil {
			return nil, apperrors.ConfigurationError(fmt.Sprintf("failed to create scm %q", name), err)
		}

		if _, dup := r.plugins[plugin.Context()]; dup {
			return nil, apperrors.ConfigurationError(
				fmt.Sprintf("scm context %q is configured more than once", plugin.Context()), nil,
			)
		}
		r.plugins[plugin.Context()] = plugin

		r.log.Debug("SCM plugin registered",
			logger.String("name", name),
			logger.Plugin(plugin.Name()),
			logger.SCMContext(plugin.Context()),
		)
	}

	return r, nil
}

// Supports reports whether scmContext has a configured plugin
func (r *Router) Supports(scmContext string) bool {
	_, ok := r.plugins[scmContext]
	return ok
}

// Contexts returns every configured scm context
func (r *Router) Contexts() []string {
	out := make([]string, 0, len(r.plugins))
	for c := range r.plugins {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// VerifyToken resolves the account that owns token on the given context
func (r *Router) VerifyToken(ctx context.Context, scmContext, token string) (string, error) {
	plugin, ok := r.plugins[scmContext]
	if !ok {
		return "", apperrors.SCMError(
			fmt.Sprintf("no scm configured for context %q (have %v)", scmContext, r.Contexts()),
			apperrors.ErrUnknownSCMContext,
		)
	}
	return plugin.VerifyToken(ctx, token)
}

var _ service.SCMRouter = (*Router)(nil)
