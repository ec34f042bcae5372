package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/format"
	"github.com/salmonumbrella/fastmail-mcp/internal/outfmt"
)

func newMailboxesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "mailboxes",
		Aliases: []string{"folders"},
		Short:   "List mailboxes with total and unread counts",
		Args:    cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			client, err := app.JMAPClient()
			if err != nil {
				return err
			}

			mailboxes, err := client.ListMailboxes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list mailboxes: %w", err)
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, mailboxes)
			}

			if len(mailboxes) == 0 {
				app.UI.Info("No mailboxes found.")
				return nil
			}

			tw := outfmt.NewTabWriter(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tROLE\tUNREAD\tTOTAL")
			for _, mb := range mailboxes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					mb.ID,
					outfmt.SanitizeTab(mb.Name),
					format.RoleLabel(mb.Role),
					mb.UnreadEmails,
					mb.TotalEmails,
				)
			}
			return tw.Flush()
		}),
	}
}
