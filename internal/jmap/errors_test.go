package jmap

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation with field", &ValidationError{Field: "email_id", Message: "is required"}, "email_id: is required"},
		{"validation without field", &ValidationError{Message: "bad input"}, "bad input"},
		{"auth with status", &AuthError{StatusCode: 401, Message: "request rejected"}, "authentication error (status 401): request rejected"},
		{"auth without status", &AuthError{Message: "token grants no mail access"}, "authentication error: token grants no mail access"},
		{"network", &NetworkError{Op: "fetching session", Err: errors.New("connection refused")}, "fetching session: connection refused"},
		{"network timeout", &NetworkError{Op: "executing request", Timeout: true, Err: errors.New("deadline")}, "executing request: timed out: deadline"},
		{"protocol", &ProtocolError{Message: "decoding response"}, "protocol error: decoding response"},
		{"protocol with status and type", &ProtocolError{StatusCode: 400, Type: "urn:ietf:params:jmap:error:notJSON", Message: "bad body"}, "protocol error (status 400): bad body (urn:ietf:params:jmap:error:notJSON)"},
		{"rate limit", &RateLimitError{RetryAfter: 5 * time.Second}, "rate limited, retry after 5s"},
		{"translation", &TranslationError{Entity: "email", Reason: "missing id"}, "invalid email record: missing id"},
		{"not found with id", &NotFoundError{Resource: "email", ID: "M123"}, "email not found: M123"},
		{"not found without id", &NotFoundError{Resource: "mailbox"}, "mailbox not found"},
		{"not found with candidates", &NotFoundError{Resource: "mailbox", ID: "ork", Candidates: []string{"Homework", "Work"}}, "mailbox not found: ork (did you mean Homework, Work?)"},
		{"method error", &MethodError{Type: "invalidArguments", Description: "bad filter"}, "JMAP error (invalidArguments): bad filter"},
		{"method error without description", &MethodError{Type: "serverFail"}, "JMAP error: serverFail"},
		{"request context", &RequestContext{Method: "Email/get", Err: &MethodError{Type: "serverFail"}}, "Email/get: JMAP error: serverFail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("operation: %w", err) }

	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		want      bool
	}{
		{"validation", wrap(&ValidationError{Message: "x"}), IsValidationError, true},
		{"auth", wrap(&AuthError{Message: "x"}), IsAuthError, true},
		{"auth from plain error", errors.New("auth"), IsAuthError, false},
		{"network", wrap(&NetworkError{Op: "x", Err: errors.New("y")}), IsNetworkError, true},
		{"protocol", wrap(&ProtocolError{Message: "x"}), IsProtocolError, true},
		{"protocol from method error", &RequestContext{Method: "Email/get", Err: &MethodError{Type: "serverFail"}}, IsProtocolError, true},
		{"protocol from auth", &AuthError{Message: "x"}, IsProtocolError, false},
		{"rate limit", wrap(&RateLimitError{}), IsRateLimitError, true},
		{"translation", wrap(&TranslationError{Entity: "mailbox"}), IsTranslationError, true},
		{"not found", wrap(&NotFoundError{Resource: "email"}), IsNotFoundError, true},
		{"not found from nil", nil, IsNotFoundError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.predicate(tt.err); got != tt.want {
				t.Errorf("predicate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsMethodError(t *testing.T) {
	err := &RequestContext{Method: "Email/query", Err: &MethodError{Type: "unsupportedFilter"}}

	if !IsMethodError(err, "") {
		t.Error("IsMethodError(err, \"\") = false, want true")
	}
	if !IsMethodError(err, "unsupportedFilter") {
		t.Error("IsMethodError(err, unsupportedFilter) = false, want true")
	}
	if IsMethodError(err, "serverFail") {
		t.Error("IsMethodError(err, serverFail) = true, want false")
	}
	if IsMethodError(errors.New("plain"), "") {
		t.Error("IsMethodError(plain) = true, want false")
	}
}

func TestUnwrapChains(t *testing.T) {
	cause := errors.New("root cause")

	for _, err := range []error{
		&AuthError{Message: "x", Err: cause},
		&NetworkError{Op: "x", Err: cause},
		&ProtocolError{Message: "x", Err: cause},
		&RequestContext{Method: "Mailbox/get", Err: cause},
	} {
		if !errors.Is(err, cause) {
			t.Errorf("errors.Is(%T, cause) = false, want true", err)
		}
	}

	if !errors.Is(&AuthError{Err: ErrMailCapabilityMissing}, ErrMailCapabilityMissing) {
		t.Error("AuthError should unwrap to ErrMailCapabilityMissing")
	}
}
