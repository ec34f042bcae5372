package format

import (
	"strings"
	"time"

	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
)

// AddressList joins addresses as "Name <email>, email".
func AddressList(addrs []jmap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, len(addrs))
	for i, addr := range addrs {
		parts[i] = addr.String()
	}
	return strings.Join(parts, ", ")
}

// Sender renders a From address, "Unknown" when there is none.
func Sender(addr jmap.Address) string {
	if s := addr.String(); s != "" {
		return s
	}
	return "Unknown"
}

// Date renders a timestamp in RFC 3339 UTC, "Unknown" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

// ShortDate renders a timestamp for table columns.
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Subject substitutes a placeholder for an empty subject.
func Subject(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No subject"
	}
	return s
}
