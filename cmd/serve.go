// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/authcap-cli/internal/mcp"
	"github.com/xkilldash9x/authcap-cli/internal/observability"
	"github.com/xkilldash9x/authcap-cli/internal/session"
)

// newServeCmd creates the `serve` command hosting the HTTP tool surface.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP tool surface for remote capture and export",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			cfg.Server.Listen = viper.GetString("server.listen")

			driver := session.NewPlaywrightDriver(cfg.Browser, logger)
			capturer := session.NewCapturer(driver, logger)
			broker := session.NewBroker(driver, logger)

			server := mcp.NewServer(cfg, logger, capturer, broker)
			return server.Start(cmd.Context())
		},
	}

	serveCmd.Flags().String("listen", "", "listen address (default from config)")
	return serveCmd
}
