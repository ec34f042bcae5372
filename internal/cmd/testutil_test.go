package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/salmonumbrella/fastmail-mcp/internal/config"
	cerrors "github.com/salmonumbrella/fastmail-mcp/internal/errors"
	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
	"github.com/salmonumbrella/fastmail-mcp/internal/testutil"
)

const testToken = "fmu1-test-token-12345"

// isolateEnv clears every setting the CLI reads from the environment and
// points the config and keyring directories at a temp dir.
func isolateEnv(t *testing.T) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	for _, name := range config.TokenEnvVars {
		t.Setenv(name, "")
	}
	for _, name := range []string{
		"FASTMAIL_ACCOUNT", "FASTMAIL_BASE_URL", "FASTMAIL_TIMEOUT", "FASTMAIL_DEBUG",
		"FASTMAIL_OUTPUT", "FASTMAIL_RATE_LIMIT_FALLBACK_DELAY", "FASTMAIL_RATE_LIMIT_MAX_DELAY",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("FASTMAIL_COLOR", "never")
	stubKeyring(t, nil)
}

// stubKeyring replaces keyring access with an empty store holding accounts.
func stubKeyring(t *testing.T, accounts []config.StoredAccount) {
	t.Helper()

	origResolve, origList := resolveToken, listAccounts
	t.Cleanup(func() {
		resolveToken, listAccounts = origResolve, origList
	})

	resolveToken = func(s *config.Settings) (string, config.TokenSource, error) {
		if s != nil && s.APIToken != "" {
			return s.APIToken, config.SourceSettings, nil
		}
		return "", "", cerrors.WithSuggestion(config.ErrNoToken, cerrors.SuggestionSetToken)
	}
	listAccounts = func() ([]config.StoredAccount, error) {
		return accounts, nil
	}
}

// newCLIServer isolates the environment and serves a JMAP account the CLI
// reaches through FASTMAIL_BASE_URL with testToken.
func newCLIServer(t *testing.T) *testutil.JMAPServer {
	t.Helper()
	isolateEnv(t)

	js := testutil.NewJMAPServer("acc1")
	t.Cleanup(js.Close)
	t.Setenv("FASTMAIL_BASE_URL", js.URL())
	t.Setenv("FASTMAIL_API_TOKEN", testToken)
	return js
}

// runCLI executes the root command with captured output streams.
func runCLI(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = execute(args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func handleMailboxes(js *testutil.JMAPServer, mailboxes ...map[string]any) {
	js.HandleMethod(jmap.MethodMailboxGet, func(args map[string]any) (any, *testutil.MethodError) {
		return map[string]any{"accountId": args["accountId"], "list": mailboxes, "notFound": []string{}}, nil
	})
}

// handleInbox serves a mailbox store holding the inbox and a folder whose
// name contains "inbox".
func handleInbox(js *testutil.JMAPServer) {
	js.HandleMailboxes(
		map[string]any{"id": "mb-inbox", "name": "Inbox", "role": "inbox"},
		map[string]any{"id": "mb-archive", "name": "Inbox Archive"},
	)
}

// handleEmails serves Email/query with ids and Email/get with a summary
// record per requested id.
func handleEmails(js *testutil.JMAPServer, ids ...string) {
	js.HandleMethod(jmap.MethodEmailQuery, func(args map[string]any) (any, *testutil.MethodError) {
		return map[string]any{"ids": ids}, nil
	})
	js.HandleMethod(jmap.MethodEmailGet, func(args map[string]any) (any, *testutil.MethodError) {
		requested, _ := args["ids"].([]any)
		list := make([]map[string]any, 0, len(requested))
		for _, raw := range requested {
			id := raw.(string)
			list = append(list, map[string]any{
				"id":         id,
				"subject":    "Subject " + id,
				"from":       []any{map[string]any{"name": "Alice", "email": "alice@example.com"}},
				"receivedAt": "2024-03-01T10:30:00Z",
				"preview":    "preview " + id,
				"mailboxIds": map[string]any{"mb-inbox": true},
			})
		}
		return map[string]any{"list": list, "notFound": []string{}}, nil
	})
}
