package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/config"
	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
	"github.com/salmonumbrella/fastmail-mcp/internal/outfmt"
	"github.com/salmonumbrella/fastmail-mcp/internal/ui"
)

type appKey struct{}

// Keyring access, replaceable in tests.
var (
	resolveToken = config.ResolveToken
	listAccounts = config.ListAccounts
)

type App struct {
	Flags    *rootFlags
	Settings *config.Settings
	UI       *ui.UI
	Logger   *slog.Logger
}

func NewApp() *App {
	flags := rootFlags{
		Color:  envOr("FASTMAIL_COLOR", "auto"),
		Output: envOr("FASTMAIL_OUTPUT", "text"),
	}
	return &App{Flags: &flags}
}

func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func AppFromContext(ctx context.Context) *App {
	if app, ok := ctx.Value(appKey{}).(*App); ok {
		return app
	}
	return nil
}

// runE wraps a cobra RunE to inject the App and normalize errors.
func runE(app *App, fn func(cmd *cobra.Command, args []string, app *App) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if app == nil {
			app = AppFromContext(cmd.Context())
		}
		if app == nil {
			app = NewApp()
		}
		if app.UI == nil {
			app.UI = ui.FromContext(cmd.Context())
		}
		return mapCommandError(fn(cmd, args, app))
	}
}

func (a *App) IsJSON(ctx context.Context) bool {
	mode, ok := ctx.Value(outputModeKey).(outfmt.Mode)
	return ok && mode == outfmt.JSON
}

func (a *App) Query(ctx context.Context) string {
	query, _ := ctx.Value(queryKey).(string)
	return query
}

func (a *App) PrintJSON(cmd *cobra.Command, v any) error {
	return outfmt.WriteJSONFiltered(cmd.OutOrStdout(), v, a.Query(cmd.Context()))
}

func (a *App) settings() *config.Settings {
	if a.Settings != nil {
		return a.Settings
	}
	return &config.Settings{BaseURL: jmap.DefaultBaseURL, Timeout: jmap.DefaultTimeout}
}

// JMAPClient creates a client from the resolved settings and token.
func (a *App) JMAPClient() (*jmap.Client, error) {
	s := a.settings()
	token, source, err := resolveToken(s)
	if err != nil {
		return nil, err
	}
	if a.Logger != nil {
		a.Logger.Debug("resolved API token", "source", source, "account", s.Account)
	}

	client := jmap.NewClientWithBaseURL(token, s.BaseURL)
	client.SetTimeout(s.Timeout)
	client.SetRateLimitConfig(s.RateLimit.JMAP())
	return client, nil
}
