package cmd

import (
	"errors"

	cerrors "github.com/salmonumbrella/fastmail-mcp/internal/errors"
	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
)

// mapCommandError adds common suggestions for known error types.
func mapCommandError(err error) error {
	if err == nil {
		return nil
	}
	if cerrors.ContainsSuggestion(err) {
		return err
	}

	var nf *jmap.NotFoundError
	switch {
	case errors.Is(err, jmap.ErrMailCapabilityMissing):
		return cerrors.WithSuggestion(err, cerrors.SuggestionMailScope)
	case jmap.IsAuthError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionReauth)
	case jmap.IsRateLimitError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionWaitRateLimit)
	case jmap.IsNetworkError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionCheckNet)
	case errors.As(err, &nf) && nf.Resource == "mailbox":
		return cerrors.WithSuggestion(err, cerrors.SuggestionMailboxesCommand)
	case errors.As(err, &nf) && nf.Resource == "email":
		return cerrors.WithSuggestion(err, cerrors.SuggestionSearchCommand)
	case jmap.IsProtocolError(err), jmap.IsTranslationError(err):
		return cerrors.WithSuggestion(err, cerrors.SuggestionReportProtocol)
	}

	return err
}
