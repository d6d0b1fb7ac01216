package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fap-client/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local API",
	Long: `Serve the session, availability and friends operations over a local
HTTP API until interrupted.

Examples:
  fapctl serve                 # Listen on serve.port
  fapctl serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "", "listen port (overrides serve.port)")
	serveCmd.Flags().String("host", "127.0.0.1", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := requireContainer(ctx)
	if err != nil {
		return err
	}

	port, _ := cmd.Flags().GetString("port")
	if port == "" {
		port = cfg.Serve.Port
	}
	host, _ := cmd.Flags().GetString("host")

	e := c.CreateRouter(app.RouterOptions{
		EnableOTel:  enableOTel,
		ServiceName: "fapctl",
	})
	newPrinter(cmd).Info("Local API listening on http://%s:%s", host, port)
	return c.Serve(ctx, e, fmt.Sprintf("%s:%s", host, port))
}
