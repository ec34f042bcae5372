package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return strings.TrimSpace(s), nil
}

// intArg accepts JSON numbers and numeric strings. Fractions are truncated.
func intArg(args map[string]any, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case float64:
		return truncate(name, n)
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		return truncate(name, f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return def, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		return truncate(name, f)
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func truncate(name string, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return int(f), nil
}
