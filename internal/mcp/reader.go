package mcp

import (
	"context"

	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
)

// UnavailableReader answers every operation with Err. The server uses it
// when no token is configured so the tools can explain what is missing.
type UnavailableReader struct {
	Err error
}

var _ jmap.MailReader = UnavailableReader{}

func (r UnavailableReader) ListMailboxes(context.Context) ([]jmap.MailboxSummary, error) {
	return nil, r.Err
}

func (r UnavailableReader) SearchEmails(context.Context, jmap.SearchOptions) ([]jmap.SearchHit, error) {
	return nil, r.Err
}

func (r UnavailableReader) GetEmail(context.Context, string) (*jmap.EmailDetail, error) {
	return nil, r.Err
}
