package jmap

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMailCapabilityMissing indicates the session has no account with mail access.
var ErrMailCapabilityMissing = errors.New("no account with mail capability in session")

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// AuthError represents an authentication error: a rejected or expired token,
// or a session without mail access.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a connection failure or timeout.
type NetworkError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates a malformed or unexpected response from the server.
type ProtocolError struct {
	StatusCode int    // HTTP status, 0 when the transport succeeded
	Type       string // problem type URI, if the server sent one
	Message    string
	Err        error
}

func (e *ProtocolError) Error() string {
	msg := e.Message
	if e.Type != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Type)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("protocol error (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("protocol error: %s", msg)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates the request was rate limited
type RateLimitError struct {
	RetryAfter time.Duration
	// Hinted is true when RetryAfter came from the server.
	Hinted bool
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
}

// TranslationError reports a structurally invalid protocol record.
type TranslationError struct {
	Entity string // e.g., "mailbox", "email"
	Reason string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("invalid %s record: %s", e.Entity, e.Reason)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // e.g., "email", "mailbox"
	ID       string

	// Candidates names near misses the server offered instead.
	Candidates []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found", e.Resource)
	if e.ID != "" {
		msg = fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Candidates, ", "))
	}
	return msg
}

// MethodError is a method-level error returned for one call of a batch.
type MethodError struct {
	Type        string `json:"type"` // e.g., "invalidArguments", "serverFail"
	Description string `json:"description,omitempty"`
}

func (e *MethodError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("JMAP error (%s): %s", e.Type, e.Description)
	}
	return fmt.Sprintf("JMAP error: %s", e.Type)
}

// RequestContext wraps an error with JMAP method context.
type RequestContext struct {
	Method string // e.g., "Email/get", "Mailbox/query"
	Err    error
}

func (e *RequestContext) Error() string {
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *RequestContext) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthError checks if an error is an AuthError
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNetworkError checks if an error is a NetworkError
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsProtocolError reports whether err is a ProtocolError or a per-call MethodError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return true
	}
	var me *MethodError
	return errors.As(err, &me)
}

// IsRateLimitError checks if an error is a RateLimitError
func IsRateLimitError(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsTranslationError checks if an error is a TranslationError
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}

// IsNotFoundError checks if an error indicates a resource was not found.
func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsMethodError checks if an error is a MethodError, optionally of the given type.
func IsMethodError(err error, errType string) bool {
	var me *MethodError
	if !errors.As(err, &me) {
		return false
	}
	return errType == "" || me.Type == errType
}
