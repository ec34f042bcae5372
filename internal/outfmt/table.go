package outfmt

import (
	"io"
	"strings"
	"text/tabwriter"
)

// NewTabWriter returns a tabwriter for aligned columns on w.
func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// SanitizeTab replaces tabs and line breaks so a value stays in one cell.
func SanitizeTab(s string) string {
	return strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
