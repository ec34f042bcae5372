// Package filter provides JQ-compatible filtering for JSON output.
package filter

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter is a parsed and compiled JQ expression.
type Filter struct {
	code *gojq.Code
}

// Compile parses expression. An empty expression yields a nil Filter, which
// passes data through unchanged.
func Compile(expression string) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return &Filter{code: code}, nil
}

// Run applies the filter to the JSON form of data.
func (f *Filter) Run(data any) (any, error) {
	if f == nil {
		return data, nil
	}

	input, err := normalize(data)
	if err != nil {
		return nil, err
	}

	iter := f.code.Run(input)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}

	// Return single result unwrapped, multiple as array
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// Apply compiles expression and applies it to data.
func Apply(data any, expression string) (any, error) {
	f, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return f.Run(data)
}

func normalize(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode filter input: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode filter input: %w", err)
	}
	return out, nil
}
