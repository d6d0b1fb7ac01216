// Package cli contains all commands of the fapctl CLI.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fap-client/config"
	"fap-client/internal/app"
	"fap-client/internal/domain"
	"fap-client/internal/output"
	"fap-client/utils/logger"
)

var (
	cfgFile    string
	verbose    bool
	quiet      bool
	colorFlag  string
	enableOTel bool
	cfg        *config.Config
	log        *slog.Logger
	container  *app.Container
	version    = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fapctl",
	Short: "Friends and profiles client",
	Long: `fapctl signs in to the identity service and manages friendships on the
relationship service. It keeps one session on disk between invocations.

Example usage:
  fapctl login                 # Sign in and store the session
  fapctl whoami                # Show the signed-in identity
  fapctl friends list          # List friends
  fapctl friends discover      # Find people to add
  fapctl serve                 # Run the local API`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

// SetOTelEnabled routes log records through the OTel bridge as well.
func SetOTelEnabled(enabled bool) {
	enableOTel = enabled
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .fapctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output (auto, always, never)")

	rootCmd.SetFlagErrorFunc(usageError)
}

// initConfig loads configuration and sets up the logger.
func initConfig() error {
	if _, err := output.ParseColorMode(colorFlag); err != nil {
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError}
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return &output.CLIError{
			Summary:    "invalid configuration",
			Detail:     err.Error(),
			Suggestion: "Fix the file passed with --config or the FAPCTL_* environment",
			ExitCode:   output.ExitConfigError,
		}
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log = logger.Init(logger.Options{
		Format:     cfg.Logging.Format,
		Level:      level,
		EnableOTel: enableOTel,
	})

	log.Debug("configuration loaded",
		"api_base_url", cfg.API.BaseURL,
		"store_backend", cfg.Store.Backend,
		"landing_route", cfg.Session.LandingRoute,
	)
	return nil
}

// newPrinter creates a printer bound to the command's streams.
func newPrinter(cmd *cobra.Command) *output.Printer {
	mode, _ := output.ParseColorMode(colorFlag)
	colors := true
	if cfg != nil {
		colors = cfg.Output.Colors
	}
	return output.NewPrinterWithOptions(output.PrinterOptions{
		ColorMode:    mode,
		ConfigColors: colors,
		Quiet:        quiet,
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
	})
}

// requireContainer builds the container on first use.
func requireContainer(ctx context.Context) (*app.Container, error) {
	if container != nil {
		return container, nil
	}
	c, err := app.NewContainer(ctx, cfg, log, app.Options{})
	if err != nil {
		return nil, &output.CLIError{
			Summary:    "cannot open the session store",
			Detail:     err.Error(),
			Suggestion: "Check the store section with 'fapctl config'",
			ExitCode:   output.ExitConfigError,
		}
	}
	container = c
	return c, nil
}

// requireSession returns the container once a live session exists.
func requireSession(ctx context.Context) (*app.Container, error) {
	c, err := requireContainer(ctx)
	if err != nil {
		return nil, err
	}
	if c.Session.CheckExpiration(ctx) || !c.Session.State().IsAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}
	return c, nil
}

// closeContainer releases the container built by the last command.
func closeContainer() {
	if container == nil {
		return
	}
	if err := container.Close(); err != nil && log != nil {
		log.Warn("failed to close container", "error", err)
	}
	container = nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	defer closeContainer()

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return output.ExitSuccess
	}

	cliErr := output.FromError(err)
	newPrinter(cmd).FormatError(cliErr)
	return cliErr.ExitCode
}

// usageError marks err as a command-line mistake.
func usageError(cmd *cobra.Command, err error) error {
	return &output.CLIError{
		Summary:    err.Error(),
		Suggestion: fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
		ExitCode:   output.ExitUsageError,
	}
}
