package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tphakala/eloc-raven/cmd"
	"github.com/tphakala/eloc-raven/internal/buildinfo"
	"github.com/tphakala/eloc-raven/internal/conf"
	"github.com/tphakala/eloc-raven/internal/logger"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &conf.Context{
		RunID:     uuid.NewString(),
		BuildInfo: buildinfo.NewContext(version, buildDate),
	}
	ctx = logger.WithTraceID(ctx, appCtx.RunID)

	rootCmd := cmd.RootCommand(appCtx)
	err := rootCmd.ExecuteContext(ctx)

	if closeErr := logger.Global().Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "failed to close log: %v\n", closeErr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
