package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-ascii-mcp/internal/logging"
	"github.com/ironsheep/image-ascii-mcp/internal/server"
)

func newServeCommand(info BuildInfo) *cobra.Command {
	flags := &settingsFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run a Model Context Protocol server that reads JSON-RPC requests from
stdin and writes responses to stdout. Logs go to stderr.

Conversion flags set the defaults that tool calls start from; each
ascii_convert call may override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd, flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			logger := logging.Default()
			logger.Info("starting MCP server", logging.FieldVersion, info.Version)

			srv := server.New(settings, logger, info.Version)
			err = srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				logger.Info("shutting down")
				return nil
			}
			return err
		},
	}

	addSettingsFlags(cmd, flags)

	return cmd
}
