package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
	"github.com/salmonumbrella/fastmail-mcp/internal/testutil"
)

// These tests drive the tools through a real client against the in-process
// JMAP server.
func newServedHandler(t *testing.T) (*Handler, *testutil.JMAPServer) {
	t.Helper()
	js := testutil.NewJMAPServer("acc1")
	t.Cleanup(js.Close)
	return NewHandler(jmap.NewClientWithBaseURL("test-token", js.URL()), nil), js
}

func TestIntegration_SearchInMailbox(t *testing.T) {
	h, js := newServedHandler(t)

	js.HandleMailboxes(
		map[string]any{"id": "mb-inbox", "name": "Inbox", "role": "inbox"},
		map[string]any{"id": "mb-old", "name": "Inbox 2019"},
	)
	js.HandleMethod(jmap.MethodEmailQuery, func(args map[string]any) (any, *testutil.MethodError) {
		filter, _ := args["filter"].(map[string]any)
		if filter["inMailbox"] != "mb-inbox" {
			return nil, &testutil.MethodError{Type: "invalidArguments", Description: "wrong mailbox"}
		}
		return map[string]any{"ids": []string{"e1"}}, nil
	})
	js.HandleMethod(jmap.MethodEmailGet, func(args map[string]any) (any, *testutil.MethodError) {
		return map[string]any{"list": []any{map[string]any{
			"id":         "e1",
			"subject":    "Quarterly report",
			"from":       []any{map[string]any{"name": "Alice", "email": "alice@example.com"}},
			"receivedAt": "2024-03-01T10:30:00Z",
			"preview":    "Numbers are in",
		}}}, nil
	})

	text, err := h.Call(context.Background(), ToolSearchEmails, map[string]any{"mailbox": "INBOX", "limit": 5.0})
	if err != nil {
		t.Fatal(err)
	}
	want := "Found 1 email(s):\n\n" +
		"ID: e1\nSubject: Quarterly report\nFrom: Alice <alice@example.com>\nDate: 2024-03-01T10:30:00Z\nPreview: Numbers are in\n"
	if text != want {
		t.Errorf("text =\n%q\nwant\n%q", text, want)
	}
	if js.APIHits() != 1 {
		t.Errorf("API hits = %d, want 1", js.APIHits())
	}
}

func TestIntegration_UnknownMailbox(t *testing.T) {
	h, js := newServedHandler(t)

	js.HandleMailboxes(map[string]any{"id": "mb-receipts-old", "name": "Receipts 2023"})
	js.HandleMethod(jmap.MethodEmailQuery, func(map[string]any) (any, *testutil.MethodError) {
		return map[string]any{"ids": []string{}}, nil
	})
	js.HandleMethod(jmap.MethodEmailGet, func(map[string]any) (any, *testutil.MethodError) {
		return map[string]any{"list": []any{}}, nil
	})

	text, err := h.Call(context.Background(), ToolSearchEmails, map[string]any{"mailbox": "Receipts"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "Error searching emails: mailbox not found: Receipts") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "Receipts 2023") {
		t.Errorf("text = %q, want the near miss named", text)
	}
}

func TestIntegration_GetEmailNotFound(t *testing.T) {
	h, js := newServedHandler(t)

	js.HandleMethod(jmap.MethodEmailGet, func(map[string]any) (any, *testutil.MethodError) {
		return map[string]any{"list": []any{}, "notFound": []string{"gone"}}, nil
	})

	text, err := h.Call(context.Background(), ToolGetEmail, map[string]any{"email_id": "gone"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "Email with ID 'gone' not found. The email may have been deleted or the ID may be incorrect." {
		t.Errorf("text = %q", text)
	}
}

func TestIntegration_RejectedToken(t *testing.T) {
	h, js := newServedHandler(t)
	js.FailSession(testutil.Failure{Status: 401, Body: "unauthorized"})

	text, err := h.Call(context.Background(), ToolListMailboxes, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "Error listing mailboxes: ") {
		t.Errorf("text = %q", text)
	}
	if strings.Contains(text, "test-token") {
		t.Error("tool output must not contain the token")
	}
}
