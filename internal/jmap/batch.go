package jmap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/salmonumbrella/fastmail-mcp/internal/logging"
	"github.com/salmonumbrella/fastmail-mcp/internal/transport"
)

// MethodResponse is one entry of methodResponses. Err is set when the server
// answered the call with an "error" invocation.
type MethodResponse struct {
	CallID string
	Name   string
	Result json.RawMessage
	Err    *MethodError
}

// UnmarshalJSON decodes a JMAP invocation triple.
func (m *MethodResponse) UnmarshalJSON(data []byte) error {
	var triple []json.RawMessage
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("invocation has %d elements, want 3", len(triple))
	}
	if err := json.Unmarshal(triple[0], &m.Name); err != nil {
		return fmt.Errorf("invocation name: %w", err)
	}
	if err := json.Unmarshal(triple[2], &m.CallID); err != nil {
		return fmt.Errorf("invocation call id: %w", err)
	}
	m.Result = triple[1]
	if m.Name == "error" {
		var me MethodError
		if err := json.Unmarshal(triple[1], &me); err != nil {
			return fmt.Errorf("method error: %w", err)
		}
		m.Err = &me
	}
	return nil
}

// Response is the body of a JMAP API response.
type Response struct {
	MethodResponses []MethodResponse `json:"methodResponses"`
	SessionState    string           `json:"sessionState"`
}

// Responses maps call ids to their responses.
type Responses map[string]*MethodResponse

// Decode unmarshals the result of callID into v. A method-level error for the
// call is returned as *MethodError.
func (r Responses) Decode(callID string, v any) error {
	resp, ok := r[callID]
	if !ok {
		return &ProtocolError{Message: fmt.Sprintf("no response for call %q", callID)}
	}
	if resp.Err != nil {
		return resp.Err
	}
	if err := json.Unmarshal(resp.Result, v); err != nil {
		return &ProtocolError{Message: fmt.Sprintf("decoding %s response", resp.Name), Err: err}
	}
	return nil
}

// problemDetails is the RFC 7807 body of a request-level error.
type problemDetails struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Limit  string `json:"limit"`
}

// Execute sends calls as a single request to the session's API endpoint and
// returns the responses keyed by call id.
func (c *Client) Execute(ctx context.Context, session *Session, calls ...MethodCall) (Responses, error) {
	if session == nil {
		return nil, errors.New("execute: no session")
	}

	req, err := NewRequest(calls...)
	if err != nil {
		return nil, err
	}
	if limit := session.Core.MaxCallsInRequest; limit > 0 && len(calls) > limit {
		return nil, &ValidationError{
			Field:   "methodCalls",
			Message: fmt.Sprintf("%d calls exceed the server limit of %d", len(calls), limit),
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	requestID := uuid.NewString()
	logger := logging.FromContext(ctx)
	logger.Debug("executing JMAP batch",
		"request_id", requestID,
		"calls", len(calls),
		"methods", req.methodNames(),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, session.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+session.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	httpResp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, networkError("executing request", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, statusError(httpResp)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		if transport.IsTimeout(err) {
			return nil, networkError("reading response", err)
		}
		return nil, &ProtocolError{Message: "decoding response", Err: err}
	}

	if resp.SessionState != "" && resp.SessionState != session.State {
		logger.Debug("session state changed", "request_id", requestID, "session_state", resp.SessionState)
	}

	return demux(req, &resp)
}

// demux keys responses by call id and rejects entries for calls that were
// never sent.
func demux(req *Request, resp *Response) (Responses, error) {
	sent := make(map[string]bool, len(req.MethodCalls))
	for _, call := range req.MethodCalls {
		sent[call.CallID] = true
	}

	out := make(Responses, len(resp.MethodResponses))
	for i := range resp.MethodResponses {
		mr := &resp.MethodResponses[i]
		if !sent[mr.CallID] {
			return nil, &ProtocolError{Message: fmt.Sprintf("response for unknown call %q", mr.CallID)}
		}
		if mr.Err != nil && mr.Err.Type == "rateLimit" {
			return nil, &RateLimitError{}
		}
		if _, seen := out[mr.CallID]; !seen {
			out[mr.CallID] = mr
		}
	}
	return out, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	httpErr := transport.NewHTTPError("executing request", resp, body)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return rateLimitError(resp)
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Message: "request rejected", Err: httpErr}
	}

	var problem problemDetails
	_ = json.Unmarshal(body, &problem)
	if problem.Limit == "rateLimit" {
		return rateLimitError(resp)
	}

	msg := problem.Detail
	if msg == "" {
		msg = "request failed"
	}
	return &ProtocolError{
		StatusCode: resp.StatusCode,
		Type:       problem.Type,
		Message:    msg,
		Err:        httpErr,
	}
}

func rateLimitError(resp *http.Response) *RateLimitError {
	delay, ok := transport.ParseRetryAfter(resp)
	return &RateLimitError{RetryAfter: delay, Hinted: ok}
}
