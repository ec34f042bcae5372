package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/format"
	"github.com/salmonumbrella/fastmail-mcp/internal/validation"
)

func newGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <emailId>",
		Short: "Show one email with its body as text",
		Args:  cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			id := strings.TrimSpace(args[0])
			if err := validation.ID("email id", id); err != nil {
				return err
			}

			client, err := app.JMAPClient()
			if err != nil {
				return err
			}

			email, err := client.GetEmail(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get email: %w", err)
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, email)
			}

			fmt.Fprintln(cmd.OutOrStdout(), format.EmailDetail(email))
			return nil
		}),
	}
}
