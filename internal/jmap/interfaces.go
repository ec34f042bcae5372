package jmap

import "context"

// MailReader is the read-only mail surface exposed to tools and commands.
// It allows callers to be tested without network calls.
type MailReader interface {
	// ListMailboxes returns every mailbox in the account
	ListMailboxes(ctx context.Context) ([]MailboxSummary, error)

	// SearchEmails returns emails matching opts, most recent first
	SearchEmails(ctx context.Context, opts SearchOptions) ([]SearchHit, error)

	// GetEmail returns one email with its body as text
	GetEmail(ctx context.Context, id string) (*EmailDetail, error)
}
