package service

import "context"

// SCMRouter resolves source-control contexts to configured backends
type SCMRouter interface {
	// Supports reports whether a backend is configured for scmContext
	Supports(scmContext string) bool

	// Contexts lists the configured context names
	Contexts() []string

	// VerifyToken checks token against the provider behind scmContext and
	// returns the login it belongs to
	VerifyToken(ctx context.Context, scmContext, token string) (string, error)
}
