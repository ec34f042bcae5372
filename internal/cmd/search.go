package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/fastmail-mcp/internal/dateparse"
	"github.com/salmonumbrella/fastmail-mcp/internal/format"
	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
	"github.com/salmonumbrella/fastmail-mcp/internal/outfmt"
	"github.com/salmonumbrella/fastmail-mcp/internal/validation"
)

const subjectWidth = 60

func newSearchCmd(app *App) *cobra.Command {
	var (
		mailbox string
		limit   int
		after   string
		before  string
		oldest  bool
	)

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search emails by text, mailbox and date",
		Long: `Search emails by text across subject, body and addresses.

Results are newest first. --mailbox takes a mailbox name or a role such as
inbox, sent or archive. --after and --before accept YYYY-MM-DD, RFC 3339,
yesterday, 7d, "2 weeks ago" or a weekday.`,
		Example: strings.TrimSpace(`
  fastmail-mcp search invoice
  fastmail-mcp search --mailbox sent --after 7d
  fastmail-mcp search "quarterly report" --before 2024-01-01 --limit 50`),
		RunE: runE(app, func(cmd *cobra.Command, args []string, app *App) error {
			if err := validation.NonNegativeInt("--limit", limit); err != nil {
				return err
			}

			opts := jmap.SearchOptions{
				Query:     strings.Join(args, " "),
				Mailbox:   mailbox,
				Limit:     limit,
				Ascending: oldest,
			}
			var err error
			if opts.After, err = parseBound("--after", after); err != nil {
				return err
			}
			if opts.Before, err = parseBound("--before", before); err != nil {
				return err
			}
			if !opts.After.IsZero() && !opts.Before.IsZero() && !opts.After.Before(opts.Before) {
				return fmt.Errorf("--after must be earlier than --before")
			}

			client, err := app.JMAPClient()
			if err != nil {
				return err
			}

			hits, err := client.SearchEmails(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to search emails: %w", err)
			}

			if app.IsJSON(cmd.Context()) {
				return app.PrintJSON(cmd, hits)
			}
			return printHits(cmd, app, hits)
		}),
	}

	cmd.Flags().StringVarP(&mailbox, "mailbox", "m", "", "Mailbox name or role (inbox, sent, archive, ...)")
	cmd.Flags().IntVarP(&limit, "limit", "n", jmap.DefaultSearchLimit, fmt.Sprintf("Maximum results (at most %d)", jmap.MaxSearchLimit))
	cmd.Flags().StringVar(&after, "after", "", "Only emails received at or after this time")
	cmd.Flags().StringVar(&before, "before", "", "Only emails received before this time")
	cmd.Flags().BoolVar(&oldest, "oldest", false, "Oldest first")
	return cmd
}

func parseBound(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseNow(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", flag, err)
	}
	return t, nil
}

func printHits(cmd *cobra.Command, app *App, hits []jmap.SearchHit) error {
	if len(hits) == 0 {
		app.UI.Info("No emails found.")
		return nil
	}

	tw := outfmt.NewTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tDATE\tFROM\tSUBJECT")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			h.ID,
			format.ShortDate(h.ReceivedAt),
			outfmt.SanitizeTab(format.Truncate(format.Sender(h.From), 40)),
			outfmt.SanitizeTab(format.Truncate(format.Subject(h.Subject), subjectWidth)),
		)
	}
	return tw.Flush()
}
