// Package main is the entry point for the fapctl CLI
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fap-client/internal/cli"
	"fap-client/utils/otel"
)

// Set at build time via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional
	_ = godotenv.Load()

	ctx := context.Background()

	otelCfg := otel.ConfigFromEnv()
	otelCfg.ServiceVersion = version
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown OpenTelemetry: %v\n", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetBuildInfo(commit, buildTime)
	cli.SetOTelEnabled(otelCfg.Enabled)

	return cli.Execute(ctx)
}
