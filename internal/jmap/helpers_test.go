package jmap

import (
	"testing"
	"time"

	"github.com/salmonumbrella/fastmail-mcp/internal/testutil"
)

const testAccountID = "acc1"

// newTestClient returns a client wired to an in-process JMAP server with
// short rate-limit waits.
func newTestClient(t *testing.T) (*Client, *testutil.JMAPServer) {
	t.Helper()
	js := testutil.NewJMAPServer(testAccountID)
	t.Cleanup(js.Close)

	c := NewClientWithBaseURL("test-token", js.URL())
	c.SetRateLimitConfig(&RateLimitConfig{
		FallbackDelay: 10 * time.Millisecond,
		MaxDelay:      100 * time.Millisecond,
	})
	return c, js
}

func handleMailboxes(js *testutil.JMAPServer, list ...map[string]any) {
	js.HandleMethod(MethodMailboxGet, func(args map[string]any) (any, *testutil.MethodError) {
		return map[string]any{
			"accountId": args["accountId"],
			"state":     "mb-state",
			"list":      list,
			"notFound":  []string{},
		}, nil
	})
}

// argInt reads a JSON number argument as an int.
func argInt(args map[string]any, key string) int {
	f, _ := args[key].(float64)
	return int(f)
}
