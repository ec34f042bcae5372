package mcp

import (
	"encoding/json"
	"math"
	"testing"
)

func TestStringArg(t *testing.T) {
	args := map[string]any{"query": "  invoices ", "limit": 5.0, "empty": nil}

	if got, err := stringArg(args, "query"); err != nil || got != "invoices" {
		t.Errorf("stringArg(query) = %q, %v", got, err)
	}
	if got, err := stringArg(args, "missing"); err != nil || got != "" {
		t.Errorf("stringArg(missing) = %q, %v", got, err)
	}
	if got, err := stringArg(args, "empty"); err != nil || got != "" {
		t.Errorf("stringArg(nil) = %q, %v", got, err)
	}
	if _, err := stringArg(args, "limit"); err == nil {
		t.Error("expected error for a non-string argument")
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{"missing", nil, 10, false},
		{"json number", 25.0, 25, false},
		{"fraction truncates", 7.9, 7, false},
		{"int", 3, 3, false},
		{"int64", int64(4), 4, false},
		{"json.Number", json.Number("12"), 12, false},
		{"numeric string", " 15 ", 15, false},
		{"empty string", "", 10, false},
		{"word", "ten", 0, true},
		{"bool", true, 0, true},
		{"nan", math.NaN(), 0, true},
		{"huge", 1e12, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			if tt.value != nil {
				args["limit"] = tt.value
			}
			got, err := intArg(args, "limit", 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("intArg() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("intArg() = %d, want %d", got, tt.want)
			}
		})
	}
}
