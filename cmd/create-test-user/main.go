package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bravo68web/testuser/internal/application/commands"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Run(ctx, os.Args, os.Stdout, os.Stderr, commands.WithVersion(version))
	stop()
	os.Exit(code)
}
