package testutil

import (
	"sort"
	"strings"
)

// HandleMailboxes serves Mailbox/query and Mailbox/get from a fixed set of
// mailboxes. Each mailbox needs at least "id" and "name". The query answers
// the way Fastmail does: name is a case-insensitive substring match, role is
// exact, AND/OR/NOT operators nest, and results sort by name.
func (s *JMAPServer) HandleMailboxes(mailboxes ...map[string]any) {
	s.HandleMethod("Mailbox/query", func(args map[string]any) (any, *MethodError) {
		filter, _ := args["filter"].(map[string]any)
		var matched []map[string]any
		for _, m := range mailboxes {
			if matchMailboxFilter(m, filter) {
				matched = append(matched, m)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return str(matched[i], "name") < str(matched[j], "name")
		})
		if limit, _ := args["limit"].(float64); limit > 0 && int(limit) < len(matched) {
			matched = matched[:int(limit)]
		}
		ids := make([]string, len(matched))
		for i, m := range matched {
			ids[i] = str(m, "id")
		}
		return map[string]any{"accountId": args["accountId"], "ids": ids, "position": 0}, nil
	})

	s.HandleMethod("Mailbox/get", func(args map[string]any) (any, *MethodError) {
		list := make([]map[string]any, 0, len(mailboxes))
		notFound := []string{}
		requested, ok := args["ids"].([]any)
		if !ok {
			list = append(list, mailboxes...)
		}
		for _, raw := range requested {
			id, _ := raw.(string)
			found := false
			for _, m := range mailboxes {
				if str(m, "id") == id {
					list = append(list, m)
					found = true
					break
				}
			}
			if !found {
				notFound = append(notFound, id)
			}
		}
		return map[string]any{
			"accountId": args["accountId"],
			"state":     "mb-state",
			"list":      list,
			"notFound":  notFound,
		}, nil
	})
}

func matchMailboxFilter(m, filter map[string]any) bool {
	if filter == nil {
		return true
	}
	if op, ok := filter["operator"].(string); ok {
		conditions, _ := filter["conditions"].([]any)
		for _, raw := range conditions {
			cond, _ := raw.(map[string]any)
			hit := matchMailboxFilter(m, cond)
			switch {
			case op == "OR" && hit:
				return true
			case op == "AND" && !hit:
				return false
			case op == "NOT" && hit:
				return false
			}
		}
		return op != "OR"
	}
	if name, ok := filter["name"].(string); ok {
		if !strings.Contains(strings.ToLower(str(m, "name")), strings.ToLower(name)) {
			return false
		}
	}
	if role, ok := filter["role"].(string); ok && str(m, "role") != role {
		return false
	}
	return true
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
