package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/update"
)

// newChecker is replaced in tests.
var newChecker = update.NewChecker

func newVersionCmd(app *App) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, _ []string, app *App) error {
			if !check {
				if app.IsJSON(cmd.Context()) {
					return app.PrintJSON(cmd, map[string]string{"version": Version, "commit": Commit, "date": Date})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "fastmail-mcp %s (commit %s, built %s)\n", Version, Commit, Date)
				return nil
			}

			result, err := newChecker().Check(cmd.Context(), Version)
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			switch {
			case result.UpdateAvailable:
				fmt.Fprintf(out, "fastmail-mcp %s is available (running %s): %s\n", result.LatestVersion, result.CurrentVersion, result.UpdateURL)
			case result.Comparable:
				fmt.Fprintf(out, "fastmail-mcp %s is up to date\n", result.CurrentVersion)
			default:
				fmt.Fprintf(out, "Latest release is %s; running %s\n", result.LatestVersion, result.CurrentVersion)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&check, "check", false, "Compare with the latest GitHub release")
	return cmd
}
