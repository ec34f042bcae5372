package jmap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/salmonumbrella/fastmail-mcp/internal/testutil"
)

func mustSession(t *testing.T, c *Client) *Session {
	t.Helper()
	s, err := c.GetSession(context.Background(), false)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	return s
}

func TestExecute_DemultiplexesResponses(t *testing.T) {
	c, js := newTestClient(t)
	handleMailboxes(js, map[string]any{"id": "mb1", "name": "Inbox", "role": "inbox"})
	js.HandleMethod(MethodEmailQuery, func(args map[string]any) (any, *testutil.MethodError) {
		return map[string]any{"ids": []string{"M1"}}, nil
	})

	resps, err := c.Execute(context.Background(), mustSession(t, c),
		MethodCall{CallID: "a", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
		MethodCall{CallID: "b", Name: MethodEmailQuery, Args: EmailQueryArgs{AccountID: testAccountID}},
	)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var mailboxes MailboxGetResponse
	if err := resps.Decode("a", &mailboxes); err != nil {
		t.Fatalf("Decode(a) error = %v", err)
	}
	if len(mailboxes.List) != 1 || mailboxes.List[0].Name != "Inbox" {
		t.Errorf("mailboxes = %+v, want Inbox", mailboxes.List)
	}

	var query QueryResponse
	if err := resps.Decode("b", &query); err != nil {
		t.Fatalf("Decode(b) error = %v", err)
	}
	if len(query.IDs) != 1 || query.IDs[0] != "M1" {
		t.Errorf("query ids = %v, want [M1]", query.IDs)
	}

	if err := resps.Decode("missing", &query); !IsProtocolError(err) {
		t.Errorf("Decode(missing) error = %v, want ProtocolError", err)
	}

	reqs := js.Requests()
	if len(reqs) != 1 || len(reqs[0]) != 2 {
		t.Fatalf("server saw %v, want one request with two calls", reqs)
	}
	if tokens := js.APITokens(); len(tokens) != 1 || tokens[0] != "test-token" {
		t.Errorf("API tokens = %v, want [test-token]", tokens)
	}
}

func TestExecute_MethodErrorIsPerCall(t *testing.T) {
	c, js := newTestClient(t)
	handleMailboxes(js)
	js.HandleMethod(MethodEmailQuery, func(args map[string]any) (any, *testutil.MethodError) {
		return nil, &testutil.MethodError{Type: "unsupportedFilter", Description: "no such filter"}
	})

	resps, err := c.Execute(context.Background(), mustSession(t, c),
		MethodCall{CallID: "a", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
		MethodCall{CallID: "b", Name: MethodEmailQuery, Args: EmailQueryArgs{AccountID: testAccountID}},
	)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var mailboxes MailboxGetResponse
	if err := resps.Decode("a", &mailboxes); err != nil {
		t.Errorf("Decode(a) error = %v, want success", err)
	}

	var query QueryResponse
	err = resps.Decode("b", &query)
	if !IsMethodError(err, "unsupportedFilter") {
		t.Errorf("Decode(b) error = %v, want unsupportedFilter method error", err)
	}
	if !IsProtocolError(err) {
		t.Errorf("IsProtocolError(%v) = false, want true", err)
	}
}

func TestExecute_HTTPFailures(t *testing.T) {
	tests := []struct {
		name    string
		failure testutil.Failure
		check   func(t *testing.T, err error)
	}{
		{
			name:    "rate limited with hint",
			failure: testutil.Failure{Status: http.StatusTooManyRequests, Header: http.Header{"Retry-After": {"3"}}},
			check: func(t *testing.T, err error) {
				var rle *RateLimitError
				if !errors.As(err, &rle) {
					t.Fatalf("error = %v, want RateLimitError", err)
				}
				if !rle.Hinted || rle.RetryAfter != 3*time.Second {
					t.Errorf("RateLimitError = %+v, want hinted 3s", rle)
				}
			},
		},
		{
			name:    "rate limited without hint",
			failure: testutil.Failure{Status: http.StatusTooManyRequests},
			check: func(t *testing.T, err error) {
				var rle *RateLimitError
				if !errors.As(err, &rle) {
					t.Fatalf("error = %v, want RateLimitError", err)
				}
				if rle.Hinted {
					t.Errorf("RateLimitError.Hinted = true, want false")
				}
			},
		},
		{
			name:    "unauthorized",
			failure: testutil.Failure{Status: http.StatusUnauthorized},
			check: func(t *testing.T, err error) {
				var ae *AuthError
				if !errors.As(err, &ae) || ae.StatusCode != http.StatusUnauthorized {
					t.Errorf("error = %v, want AuthError with status 401", err)
				}
			},
		},
		{
			name:    "forbidden",
			failure: testutil.Failure{Status: http.StatusForbidden},
			check: func(t *testing.T, err error) {
				if !IsAuthError(err) {
					t.Errorf("error = %v, want AuthError", err)
				}
			},
		},
		{
			name: "problem details",
			failure: testutil.Failure{
				Status: http.StatusBadRequest,
				Body:   `{"type":"urn:ietf:params:jmap:error:unknownCapability","status":400,"detail":"unknown capability"}`,
			},
			check: func(t *testing.T, err error) {
				var pe *ProtocolError
				if !errors.As(err, &pe) {
					t.Fatalf("error = %v, want ProtocolError", err)
				}
				if pe.Type != "urn:ietf:params:jmap:error:unknownCapability" || pe.Message != "unknown capability" {
					t.Errorf("ProtocolError = %+v, want decoded problem details", pe)
				}
			},
		},
		{
			name:    "problem details rate limit",
			failure: testutil.Failure{Status: http.StatusBadRequest, Body: `{"type":"urn:ietf:params:jmap:error:limit","limit":"rateLimit"}`},
			check: func(t *testing.T, err error) {
				if !IsRateLimitError(err) {
					t.Errorf("error = %v, want RateLimitError", err)
				}
			},
		},
		{
			name:    "server error",
			failure: testutil.Failure{Status: http.StatusBadGateway, Body: "upstream down"},
			check: func(t *testing.T, err error) {
				var pe *ProtocolError
				if !errors.As(err, &pe) || pe.StatusCode != http.StatusBadGateway {
					t.Errorf("error = %v, want ProtocolError with status 502", err)
				}
			},
		},
		{
			name:    "malformed body",
			failure: testutil.Failure{Status: http.StatusOK, Body: `{"methodResponses": [["Mailbox/get"]]}`},
			check: func(t *testing.T, err error) {
				if !IsProtocolError(err) {
					t.Errorf("error = %v, want ProtocolError", err)
				}
			},
		},
		{
			name:    "unknown call id",
			failure: testutil.Failure{Status: http.StatusOK, Body: `{"methodResponses": [["Mailbox/get", {}, "zzz"]]}`},
			check: func(t *testing.T, err error) {
				if !IsProtocolError(err) {
					t.Errorf("error = %v, want ProtocolError", err)
				}
			},
		},
		{
			name:    "rate limit method error",
			failure: testutil.Failure{Status: http.StatusOK, Body: `{"methodResponses": [["error", {"type":"rateLimit"}, "a"]]}`},
			check: func(t *testing.T, err error) {
				if !IsRateLimitError(err) {
					t.Errorf("error = %v, want RateLimitError", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, js := newTestClient(t)
			session := mustSession(t, c)
			js.FailAPI(tt.failure)

			_, err := c.Execute(context.Background(), session,
				MethodCall{CallID: "a", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
			)
			if err == nil {
				t.Fatal("Execute() error = nil, want error")
			}
			tt.check(t, err)
		})
	}
}

func TestExecute_EnforcesMaxCalls(t *testing.T) {
	c, js := newTestClient(t)
	session := mustSession(t, c)
	session.Core.MaxCallsInRequest = 1

	_, err := c.Execute(context.Background(), session,
		MethodCall{CallID: "a", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
		MethodCall{CallID: "b", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
	)
	if !IsValidationError(err) {
		t.Errorf("Execute() error = %v, want ValidationError", err)
	}
	if js.APIHits() != 0 {
		t.Errorf("APIHits() = %d, want 0", js.APIHits())
	}
}

func TestExecute_InvalidBatchSendsNothing(t *testing.T) {
	c, js := newTestClient(t)

	_, err := c.Execute(context.Background(), mustSession(t, c),
		MethodCall{CallID: "b", Name: MethodEmailGet, Args: EmailGetArgs{
			AccountID: testAccountID,
			IDsRef:    &ResultReference{ResultOf: "a", Name: MethodEmailQuery, Path: "/ids"},
		}},
	)
	if !IsValidationError(err) {
		t.Errorf("Execute() error = %v, want ValidationError", err)
	}
	if js.APIHits() != 0 {
		t.Errorf("APIHits() = %d, want 0", js.APIHits())
	}
}

func TestExecute_Headers(t *testing.T) {
	var got http.Header
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&body)
		testutil.WriteJSON(w, http.StatusOK, map[string]any{
			"methodResponses": []any{[]any{"Mailbox/get", map[string]any{"list": []any{}}, "a"}},
			"sessionState":    "s2",
		})
	}))
	defer server.Close()

	c := NewClientWithBaseURL("test-token", server.URL)
	session := &Session{APIURL: server.URL, MailAccountID: testAccountID, token: "test-token"}

	if _, err := c.Execute(context.Background(), session,
		MethodCall{CallID: "a", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
	); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if auth := got.Get("Authorization"); auth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", auth)
	}
	if ct := got.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	using, _ := body["using"].([]any)
	if len(using) != 2 || using[0] != CapabilityCore || using[1] != CapabilityMail {
		t.Errorf("using = %v, want core and mail", using)
	}
}

func TestExecute_NetworkError(t *testing.T) {
	c, js := newTestClient(t)
	session := mustSession(t, c)
	js.Close()

	_, err := c.Execute(context.Background(), session,
		MethodCall{CallID: "a", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
	)
	if !IsNetworkError(err) {
		t.Errorf("Execute() error = %v, want NetworkError", err)
	}
}

func TestExecute_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClientWithBaseURL("test-token", server.URL)
	c.SetTimeout(20 * time.Millisecond)
	session := &Session{APIURL: server.URL, token: "test-token"}

	_, err := c.Execute(context.Background(), session,
		MethodCall{CallID: "a", Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: testAccountID}},
	)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("Execute() error = %v, want NetworkError", err)
	}
	if !ne.Timeout {
		t.Errorf("NetworkError.Timeout = false, want true")
	}
}

func TestMethodResponse_UnmarshalJSON(t *testing.T) {
	var mr MethodResponse
	if err := json.Unmarshal([]byte(`["error",{"type":"serverFail","description":"oops"},"c1"]`), &mr); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if mr.CallID != "c1" || mr.Err == nil || mr.Err.Type != "serverFail" {
		t.Errorf("MethodResponse = %+v, want serverFail error for c1", mr)
	}

	if err := json.Unmarshal([]byte(`["Mailbox/get",{}]`), &mr); err == nil {
		t.Error("Unmarshal() of a two-element invocation should fail")
	}
}
