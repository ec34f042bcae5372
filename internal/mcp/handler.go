// Package mcp exposes the mail operations as Model Context Protocol tools
// over stdio. Tool failures are rendered as text for the model to read;
// only an unknown tool name is a protocol error.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gomcpgo/mcp/pkg/protocol"

	cerrors "github.com/salmonumbrella/fastmail-mcp/internal/errors"
	"github.com/salmonumbrella/fastmail-mcp/internal/format"
	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
	"github.com/salmonumbrella/fastmail-mcp/internal/logging"
)

const emailIDRequired = "Error: email_id is required. Use search_emails first to find email IDs."

// Handler serves the mail tools from a MailReader.
type Handler struct {
	reader jmap.MailReader
	logger *slog.Logger
}

// NewHandler returns a Handler. A nil logger discards logs.
func NewHandler(reader jmap.MailReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{reader: reader, logger: logger}
}

func (h *Handler) ListTools(ctx context.Context) (*protocol.ListToolsResponse, error) {
	return &protocol.ListToolsResponse{Tools: Tools()}, nil
}

func (h *Handler) CallTool(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResponse, error) {
	text, err := h.Call(ctx, req.Name, req.Arguments)
	if err != nil {
		return nil, err
	}
	return &protocol.CallToolResponse{
		Content: []protocol.ToolContent{{Type: "text", Text: text}},
	}, nil
}

// Call runs the named tool and returns its text result.
func (h *Handler) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	logger := h.logger.With("tool", name)
	ctx = logging.WithLogger(ctx, logger)
	start := time.Now()

	var text string
	switch name {
	case ToolSearchEmails:
		text = h.searchEmails(ctx, args)
	case ToolGetEmail:
		text = h.getEmail(ctx, args)
	case ToolListMailboxes:
		text = h.listMailboxes(ctx)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	logger.Debug("tool call finished", "duration", time.Since(start))
	return text, nil
}

func (h *Handler) searchEmails(ctx context.Context, args map[string]any) string {
	const prefix = "Error searching emails"

	query, err := stringArg(args, "query")
	if err != nil {
		return failure(ctx, prefix, err)
	}
	mailbox, err := stringArg(args, "mailbox")
	if err != nil {
		return failure(ctx, prefix, err)
	}
	limit, err := intArg(args, "limit", jmap.DefaultSearchLimit)
	if err != nil {
		return failure(ctx, prefix, err)
	}

	hits, err := h.reader.SearchEmails(ctx, jmap.SearchOptions{
		Query:   query,
		Mailbox: mailbox,
		Limit:   jmap.ClampSearchLimit(limit),
	})
	if err != nil {
		return failure(ctx, prefix, err)
	}
	return format.SearchResults(hits)
}

func (h *Handler) getEmail(ctx context.Context, args map[string]any) string {
	const prefix = "Error retrieving email"

	id, err := stringArg(args, "email_id")
	if err != nil {
		return failure(ctx, prefix, err)
	}
	if id == "" {
		return emailIDRequired
	}

	detail, err := h.reader.GetEmail(ctx, id)
	switch {
	case err == nil:
		return format.EmailDetail(detail)
	case jmap.IsValidationError(err):
		return emailIDRequired
	case isNotFound(err, "email"):
		return fmt.Sprintf("Email with ID '%s' not found. The email may have been deleted or the ID may be incorrect.", id)
	default:
		return failure(ctx, prefix, err)
	}
}

func (h *Handler) listMailboxes(ctx context.Context) string {
	mailboxes, err := h.reader.ListMailboxes(ctx)
	if err != nil {
		return failure(ctx, "Error listing mailboxes", err)
	}
	return format.MailboxList(mailboxes)
}

// failure renders err for the model, with a hint on how to recover.
func failure(ctx context.Context, prefix string, err error) string {
	logging.FromContext(ctx).Warn("tool call failed", "error", err)
	return prefix + ": " + cerrors.UserMessage(withSuggestion(err))
}

func withSuggestion(err error) error {
	if cerrors.ContainsSuggestion(err) {
		return err
	}

	switch {
	case jmap.IsAuthError(err) && errors.Is(err, jmap.ErrMailCapabilityMissing):
		return cerrors.WithSuggestion(err, cerrors.SuggestionMailScope)
	case jmap.IsAuthError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionReauth)
	case jmap.IsRateLimitError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionWaitRateLimit)
	case jmap.IsNetworkError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionCheckNet)
	case isNotFound(err, "mailbox"):
		return cerrors.WithSuggestion(err, cerrors.SuggestionListMailboxes)
	case isNotFound(err, "email"):
		return cerrors.WithSuggestion(err, cerrors.SuggestionSearchFirst)
	case jmap.IsProtocolError(err), jmap.IsTranslationError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionReportProtocol)
	}
	return err
}

func isNotFound(err error, resource string) bool {
	var nf *jmap.NotFoundError
	return errors.As(err, &nf) && nf.Resource == resource
}
