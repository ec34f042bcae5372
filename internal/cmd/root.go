package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/config"
	cerrors "github.com/salmonumbrella/fastmail-mcp/internal/errors"
	"github.com/salmonumbrella/fastmail-mcp/internal/filter"
	"github.com/salmonumbrella/fastmail-mcp/internal/logging"
	"github.com/salmonumbrella/fastmail-mcp/internal/outfmt"
	"github.com/salmonumbrella/fastmail-mcp/internal/ui"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type rootFlags struct {
	Color   string
	Account string
	Output  string
	Config  string
	Debug   bool
	Query   string
}

type contextKey string

const (
	outputModeKey contextKey = "outputMode"
	queryKey      contextKey = "query"
)

// Execute runs the CLI with the process's standard streams.
func Execute(args []string) error {
	return execute(args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, in io.Reader, out, errOut io.Writer) error {
	app := NewApp()
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	if err != nil {
		reportError(app, errOut, err)
	}
	return err
}

func reportError(app *App, w io.Writer, err error) {
	if app.Flags.Output == "json" {
		payload := map[string]any{"message": err.Error()}
		if s := cerrors.GetSuggestion(err); s != "" {
			payload["suggestion"] = s
		}
		_ = outfmt.WriteJSON(w, map[string]any{"error": payload})
		return
	}

	u := ui.NewWithWriter(w, app.Flags.Color)
	u.Error("Error: " + err.Error())
	if s := cerrors.GetSuggestion(err); s != "" {
		u.Info("")
		u.Hint("Suggestion: " + s)
	}
}

func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "fastmail-mcp",
		Short:         "Read-only Fastmail access over JMAP, as an MCP server or from the shell",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Store an API token (read from a hidden prompt)
  fastmail-mcp auth set you@fastmail.com

  # Run the MCP server on stdio
  fastmail-mcp serve

  # Read mail from the shell
  fastmail-mcp mailboxes
  fastmail-mcp search invoice --mailbox inbox --after 30d
  fastmail-mcp get <emailId>
  fastmail-mcp recent

  # JSON output for scripting
  fastmail-mcp --output=json search receipts --query '.[].subject'
`),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !ui.ValidColorMode(app.Flags.Color) {
				return fmt.Errorf("invalid --color %q (want auto, always or never)", app.Flags.Color)
			}
			mode, err := outfmt.ParseMode(app.Flags.Output)
			if err != nil {
				return err
			}
			// Reject a bad filter before any network call.
			if _, err := filter.Compile(app.Flags.Query); err != nil {
				return err
			}

			settings, err := config.Load(app.Flags.Config)
			if err != nil {
				return err
			}
			if app.Flags.Account != "" {
				settings.Account = app.Flags.Account
			}
			if app.Flags.Debug {
				settings.Debug = true
			}
			app.Settings = settings

			u := ui.NewWithWriter(cmd.ErrOrStderr(), app.Flags.Color)
			app.UI = u
			ctx := ui.WithUI(cmd.Context(), u)

			ctx = context.WithValue(ctx, outputModeKey, mode)
			ctx = context.WithValue(ctx, queryKey, app.Flags.Query)

			// Logs go to stderr; stdout carries output or the protocol stream.
			logger := logging.Setup(cmd.ErrOrStderr(), settings.Debug)
			ctx = logging.WithLogger(ctx, logger)
			app.Logger = logger

			ctx = WithApp(ctx, app)
			cmd.SetContext(ctx)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&app.Flags.Color, "color", app.Flags.Color, "Color output: auto|always|never")
	root.PersistentFlags().StringVar(&app.Flags.Account, "account", "", "Keyring account to read the token from (default: FASTMAIL_ACCOUNT or the default stored account)")
	root.PersistentFlags().StringVar(&app.Flags.Output, "output", app.Flags.Output, "Output format: text|json")
	root.PersistentFlags().StringVar(&app.Flags.Config, "config", "", "Config file (default: ~/.config/fastmail-mcp/config.yaml)")
	root.PersistentFlags().BoolVar(&app.Flags.Debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&app.Flags.Query, "query", "", "JQ filter expression for JSON output")

	root.AddCommand(newServeCmd(app))
	root.AddCommand(newMailboxesCmd(app))
	root.AddCommand(newSearchCmd(app))
	root.AddCommand(newGetCmd(app))
	root.AddCommand(newRecentCmd(app))
	root.AddCommand(newAuthCmd(app))
	root.AddCommand(newVersionCmd(app))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
