// Package errors provides contextual error handling with user-facing suggestions.
package errors

import (
	"errors"
	"fmt"
)

// Common suggestion constants for user-facing error messages
const (
	SuggestionSetToken       = "Set FASTMAIL_API_TOKEN or run 'fastmail-mcp auth set' to store a token"
	SuggestionReauth         = "The API token was rejected; create a new one under Settings > Privacy & Security > API tokens and run 'fastmail-mcp auth set'"
	SuggestionCheckNet       = "Check your network connection and try again"
	SuggestionWaitRateLimit  = "Fastmail is rate limiting requests; wait a moment and try again"
	SuggestionSearchFirst    = "Use search_emails first to find email IDs"
	SuggestionListMailboxes  = "Use list_mailboxes to see available mailbox names"
	SuggestionUnlockKeyring  = "Unlock your system keyring (for example GNOME Keyring or KWallet) and retry"
	SuggestionReportProtocol = "The server returned an unexpected response; retry, and run with --debug if it persists"
	SuggestionMailScope      = "The API token has no mail access; create a token with the Email (read-only) scope"

	SuggestionSearchCommand    = "Use 'fastmail-mcp search' to find email IDs"
	SuggestionMailboxesCommand = "Use 'fastmail-mcp mailboxes' to see available mailbox names"
)

// ContextError wraps an error with additional context and optional user-facing suggestion.
type ContextError struct {
	Context    string // Contextual information (e.g., "while searching emails")
	Err        error  // The underlying error
	Suggestion string // Optional user-facing suggestion
}

// Error implements the error interface.
// Returns "context: error" format, or just the error message if no context.
func (e *ContextError) Error() string {
	if e.Err == nil {
		return ""
	}
	if e.Context == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Context, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is and errors.As compatibility.
func (e *ContextError) Unwrap() error {
	return e.Err
}

// WithContext wraps an error with contextual information.
// Returns nil if the error is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Context: context,
		Err:     err,
	}
}

// WithSuggestion adds a user-facing suggestion to an error.
// Returns nil if the error is nil.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ce *ContextError
	if errors.As(err, &ce) && ce == err {
		ce.Suggestion = suggestion
		return ce
	}

	return &ContextError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ContainsSuggestion checks if an error has a user-facing suggestion.
func ContainsSuggestion(err error) bool {
	return GetSuggestion(err) != ""
}

// GetSuggestion extracts the outermost user-facing suggestion from an error.
// Returns an empty string if the error is nil or has no suggestion.
func GetSuggestion(err error) string {
	for err != nil {
		var ce *ContextError
		if !errors.As(err, &ce) {
			return ""
		}
		if ce.Suggestion != "" {
			return ce.Suggestion
		}
		err = ce.Err
	}
	return ""
}

// UserMessage renders err and its suggestion, if any, on separate lines.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if s := GetSuggestion(err); s != "" {
		return fmt.Sprintf("%s\n%s", err.Error(), s)
	}
	return err.Error()
}
