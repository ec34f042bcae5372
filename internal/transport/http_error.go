package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxBodyInMessage caps how much of a response body appears in Error().
const maxBodyInMessage = 512

// HTTPError represents a non-2xx response from a JMAP endpoint.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.bodySnippet()
	switch {
	case e.Op != "" && body != "":
		return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, body)
	case e.Op != "":
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	case body != "":
		return fmt.Sprintf("http status %d: %s", e.StatusCode, body)
	default:
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
}

func (e *HTTPError) bodySnippet() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxBodyInMessage {
		return body[:maxBodyInMessage] + "..."
	}
	return body
}

// NewHTTPError constructs an HTTPError from a response and the body read from it.
func NewHTTPError(op string, resp *http.Response, body []byte) *HTTPError {
	e := &HTTPError{Op: op, Body: string(body)}
	if resp != nil {
		e.Status = resp.Status
		e.StatusCode = resp.StatusCode
	}
	return e
}

// IsHTTPStatus checks whether an error represents a specific HTTP status.
func IsHTTPStatus(err error, status int) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == status
	}
	return false
}

// IsUnauthorized checks for 401/403 HTTP errors.
func IsUnauthorized(err error) bool {
	return IsHTTPStatus(err, http.StatusUnauthorized) || IsHTTPStatus(err, http.StatusForbidden)
}
