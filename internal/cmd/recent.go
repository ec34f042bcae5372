package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/format"
	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
)

const recentLimit = 10

func newRecentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "Show the 10 most recent inbox emails",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			client, err := app.JMAPClient()
			if err != nil {
				return err
			}

			hits, err := client.SearchEmails(cmd.Context(), jmap.SearchOptions{
				Mailbox: string(jmap.RoleInbox),
				Limit:   recentLimit,
			})
			if err != nil {
				return fmt.Errorf("failed to get recent emails: %w", err)
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, hits)
			}

			fmt.Fprintln(cmd.OutOrStdout(), format.RecentList(hits))
			return nil
		}),
	}
}
