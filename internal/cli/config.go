package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Display the current fapctl configuration.

Examples:
  fapctl config                # Show all config
  fapctl config --path         # Show config file path
  fapctl config --json         # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().Bool("path", false, "show config file path")
	configCmd.Flags().Bool("json", false, "output as JSON")
}

func runConfig(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	showPath, _ := cmd.Flags().GetBool("path")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if showPath {
		if cfg.File == "" {
			printer.Info("No config file found (using defaults)")
		} else {
			printer.Info("Config file: %s", cfg.File)
		}
		return nil
	}

	if jsonOutput {
		redacted := *cfg
		redacted.Store.RedisURL = redact(cfg.Store.RedisURL)
		return writeJSON(cmd, redacted)
	}

	printer.Header("Current Configuration")

	table := printer.NewTable([]string{"KEY", "VALUE"})
	table.AddRow([]string{"api.base_url", cfg.API.BaseURL})
	table.AddRow([]string{"api.timeout", cfg.API.Timeout.String()})
	table.AddRow([]string{"store.backend", cfg.Store.Backend})
	table.AddRow([]string{"store.path", cfg.Store.Path})
	table.AddRow([]string{"store.redis_url", redact(cfg.Store.RedisURL)})
	table.AddRow([]string{"store.key_prefix", cfg.Store.KeyPrefix})
	table.AddRow([]string{"session.landing_route", cfg.Session.LandingRoute})
	table.AddRow([]string{"session.auth_route", cfg.Session.AuthRoute})
	table.AddRow([]string{"probe.debounce", cfg.Probe.Debounce.String()})
	table.AddRow([]string{"probe.cache_ttl", cfg.Probe.CacheTTL.String()})
	table.AddRow([]string{"probe.cache_size", fmt.Sprintf("%d", cfg.Probe.CacheSize)})
	table.AddRow([]string{"serve.port", cfg.Serve.Port})
	table.AddRow([]string{"serve.rate_limit", fmt.Sprintf("%g", cfg.Serve.RateLimit)})
	table.AddRow([]string{"serve.burst", fmt.Sprintf("%d", cfg.Serve.Burst)})
	table.AddRow([]string{"logging.level", cfg.Logging.Level})
	table.AddRow([]string{"logging.format", cfg.Logging.Format})
	table.AddRow([]string{"output.colors", fmt.Sprintf("%v", cfg.Output.Colors)})
	return table.Render()
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
