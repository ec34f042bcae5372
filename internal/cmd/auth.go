package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/fastmail-mcp/internal/config"
	"github.com/salmonumbrella/fastmail-mcp/internal/format"
	"github.com/salmonumbrella/fastmail-mcp/internal/validation"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Fastmail API token",
		Long: `Manage the Fastmail API token stored in the system keyring.

A token in FASTMAIL_API_TOKEN (or one of its aliases) or in the config file
takes precedence over the keyring. Create a read-only token under
Settings > Privacy & Security > API tokens.`,
	}
	cmd.AddCommand(newAuthSetCmd(app))
	cmd.AddCommand(newAuthStatusCmd(app))
	cmd.AddCommand(newAuthRemoveCmd(app))
	cmd.AddCommand(newAuthDefaultCmd(app))
	return cmd
}

func newAuthSetCmd(app *App) *cobra.Command {
	var makeDefault bool

	cmd := &cobra.Command{
		Use:   "set <account>",
		Short: "Store an API token in the keyring (prompts, or reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			account := strings.TrimSpace(args[0])
			if err := validation.Account(account); err != nil {
				return err
			}

			token, err := readToken(cmd.InOrStdin(), cmd.ErrOrStderr(), account)
			if err != nil {
				return err
			}

			if err := config.SaveToken(account, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			if makeDefault {
				if err := config.SetDefaultAccount(account); err != nil {
					return err
				}
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, map[string]any{"saved": true, "account": strings.ToLower(account)})
			}
			app.UI.Success(fmt.Sprintf("Saved API token for %s", account))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&makeDefault, "default", false, "Also make this the default account")
	return cmd
}

// readToken prompts without echo on a terminal and reads one line otherwise.
func readToken(in io.Reader, prompt io.Writer, account string) (string, error) {
	var token string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(prompt, "Enter API token for %s: ", account)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		token = string(raw)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	return token, nil
}

func newAuthStatusCmd(app *App) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and which accounts are stored",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, _ []string, app *App) error {
			settings := app.settings()

			status := map[string]any{"configured": false}
			_, source, resolveErr := resolveToken(settings)
			if resolveErr == nil {
				status["configured"] = true
				status["source"] = string(source)
			}
			if settings.Account != "" {
				status["account"] = settings.Account
			}
			if settings.ConfigFile != "" {
				status["config_file"] = settings.ConfigFile
			}

			accounts, err := listAccounts()
			if err != nil {
				app.Logger.Debug("keyring unavailable", "error", err)
			} else {
				status["stored_accounts"] = accounts
			}

			if verify && resolveErr == nil {
				client, err := app.JMAPClient()
				if err != nil {
					return err
				}
				session, err := client.GetSession(cmd.Context(), true)
				if err != nil {
					return fmt.Errorf("token check failed: %w", err)
				}
				status["username"] = session.Username
				status["mail_account_id"] = session.MailAccountID
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			if resolveErr != nil {
				app.UI.Warning("No API token configured.")
				return resolveErr
			}
			fmt.Fprintf(out, "Token source: %s\n", source)
			if u, ok := status["username"]; ok {
				fmt.Fprintf(out, "Signed in as: %s\n", u)
			}
			if len(accounts) > 0 {
				fmt.Fprintln(out, "Stored accounts:")
				for _, a := range accounts {
					marker := ""
					if a.IsDefault {
						marker = " (default)"
					}
					fmt.Fprintf(out, "  %s%s  added %s\n", a.Account, marker, format.ShortDate(a.CreatedAt))
				}
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against the server")
	return cmd
}

func newAuthRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <account>",
		Short: "Delete a stored API token",
		Args:  cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			account := strings.TrimSpace(args[0])
			if err := config.DeleteToken(account); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, map[string]any{"removed": true, "account": strings.ToLower(account)})
			}
			app.UI.Success(fmt.Sprintf("Removed API token for %s", account))
			return nil
		}),
	}
}

func newAuthDefaultCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "default <account>",
		Short: "Use a stored account when none is configured",
		Args:  cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			account := strings.TrimSpace(args[0])
			if err := config.SetDefaultAccount(account); err != nil {
				return err
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, map[string]any{"default": strings.ToLower(account)})
			}
			app.UI.Success(fmt.Sprintf("Default account set to %s", account))
			return nil
		}),
	}
}
