package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
	"github.com/salmonumbrella/fastmail-mcp/internal/mcp"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run the Model Context Protocol server on stdin/stdout.

The server exposes three read-only tools: search_emails, get_email and
list_mailboxes. It starts even without a token; the tools then explain how
to configure one.`,
		Args: cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			var reader jmap.MailReader
			client, err := app.JMAPClient()
			if err != nil {
				app.Logger.Warn("no usable API token, tools will report the problem", "error", err)
				reader = mcp.UnavailableReader{Err: mapCommandError(err)}
			} else {
				reader = client
			}

			app.Logger.Debug("starting MCP server", "version", Version)
			return mcp.Serve(mcp.NewHandler(reader, app.Logger), Version)
		}),
	}
}
