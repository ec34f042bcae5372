// Package outfmt writes command output as text tables or JSON.
package outfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/salmonumbrella/fastmail-mcp/internal/filter"
)

type Mode int

const (
	Text Mode = iota
	JSON
)

// ParseMode maps an --output flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return Text, fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

func (m Mode) String() string {
	if m == JSON {
		return "json"
	}
	return "text"
}

// WriteJSON writes v as indented JSON to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONFiltered writes v as indented JSON to w, applying a JQ filter expression.
// If query is empty, behaves like WriteJSON.
func WriteJSONFiltered(w io.Writer, v any, query string) error {
	if query == "" {
		return WriteJSON(w, v)
	}

	result, err := filter.Apply(v, query)
	if err != nil {
		return err
	}
	return WriteJSON(w, result)
}
