// Package testutil provides in-process HTTP and JMAP servers for client tests.
//
// MockServer routes requests by method and path and counts hits per route.
// JMAPServer builds on it with a session endpoint and an API endpoint that
// dispatches each method call to a registered handler, resolving result
// references between calls of the same request.
//
// Example usage:
//
//	js := testutil.NewJMAPServer("acc1")
//	defer js.Close()
//
//	js.HandleMethod("Mailbox/get", func(args map[string]any) (any, *testutil.MethodError) {
//		return map[string]any{"list": []any{}}, nil
//	})
//
//	client := jmap.NewClientWithBaseURL("token", js.URL())
package testutil
