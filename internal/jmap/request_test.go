package jmap

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMethodCall_MarshalJSON(t *testing.T) {
	call := MethodCall{
		CallID: "emails",
		Name:   MethodEmailGet,
		Args: EmailGetArgs{
			AccountID: "acc1",
			IDsRef:    &ResultReference{ResultOf: "query", Name: MethodEmailQuery, Path: "/ids"},
		},
	}

	data, err := json.Marshal(call)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var triple []json.RawMessage
	if err := json.Unmarshal(data, &triple); err != nil {
		t.Fatalf("output is not an array: %v", err)
	}
	if len(triple) != 3 {
		t.Fatalf("triple has %d elements, want 3", len(triple))
	}
	if string(triple[0]) != `"Email/get"` || string(triple[2]) != `"emails"` {
		t.Errorf("triple = %s, want name first and call id last", data)
	}

	var args map[string]any
	if err := json.Unmarshal(triple[1], &args); err != nil {
		t.Fatalf("args: %v", err)
	}
	if _, ok := args["#ids"]; !ok {
		t.Errorf("args = %v, want #ids reference", args)
	}
	if _, ok := args["ids"]; ok {
		t.Errorf("args = %v, want no literal ids", args)
	}
}

func TestMethodCall_MarshalNilArgs(t *testing.T) {
	data, err := json.Marshal(MethodCall{CallID: "c0", Name: "Core/echo"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `["Core/echo",{},"c0"]` {
		t.Errorf("Marshal() = %s, want [\"Core/echo\",{},\"c0\"]", data)
	}
}

func TestNewRequest(t *testing.T) {
	queryCall := MethodCall{CallID: "query", Name: MethodEmailQuery, Args: EmailQueryArgs{AccountID: "acc1"}}
	getCall := func(ref ResultReference) MethodCall {
		return MethodCall{CallID: "emails", Name: MethodEmailGet, Args: EmailGetArgs{AccountID: "acc1", IDsRef: &ref}}
	}

	tests := []struct {
		name    string
		calls   []MethodCall
		wantErr string
	}{
		{
			name:  "valid chain",
			calls: []MethodCall{queryCall, getCall(ResultReference{ResultOf: "query", Name: MethodEmailQuery, Path: "/ids"})},
		},
		{
			name:    "empty batch",
			wantErr: "at least one call",
		},
		{
			name:    "missing call id",
			calls:   []MethodCall{{Name: MethodMailboxGet, Args: MailboxGetArgs{AccountID: "acc1"}}},
			wantErr: "no call id",
		},
		{
			name:    "duplicate call id",
			calls:   []MethodCall{queryCall, queryCall},
			wantErr: "duplicate call id",
		},
		{
			name:    "reference to later call",
			calls:   []MethodCall{getCall(ResultReference{ResultOf: "query", Name: MethodEmailQuery, Path: "/ids"}), queryCall},
			wantErr: "unknown or later call",
		},
		{
			name:    "reference names wrong method",
			calls:   []MethodCall{queryCall, getCall(ResultReference{ResultOf: "query", Name: MethodMailboxQuery, Path: "/ids"})},
			wantErr: "reference names Mailbox/query",
		},
		{
			name:    "path without leading slash",
			calls:   []MethodCall{queryCall, getCall(ResultReference{ResultOf: "query", Name: MethodEmailQuery, Path: "ids"})},
			wantErr: "reference path",
		},
		{
			name:    "empty path",
			calls:   []MethodCall{queryCall, getCall(ResultReference{ResultOf: "query", Name: MethodEmailQuery})},
			wantErr: "empty path",
		},
		{
			name: "get without ids",
			calls: []MethodCall{
				{CallID: "emails", Name: MethodEmailGet, Args: EmailGetArgs{AccountID: "acc1"}},
			},
			wantErr: "ids or #ids is required",
		},
		{
			name: "get with ids and reference",
			calls: []MethodCall{queryCall, {
				CallID: "emails",
				Name:   MethodEmailGet,
				Args: EmailGetArgs{
					AccountID: "acc1",
					IDs:       []string{"M1"},
					IDsRef:    &ResultReference{ResultOf: "query", Name: MethodEmailQuery, Path: "/ids"},
				},
			}},
			wantErr: "mutually exclusive",
		},
		{
			name: "filter with mailbox and reference",
			calls: []MethodCall{{
				CallID: "query",
				Name:   MethodEmailQuery,
				Args: EmailQueryArgs{
					AccountID: "acc1",
					Filter: &EmailFilter{
						InMailbox:    "mb1",
						InMailboxRef: &ResultReference{ResultOf: "mailbox", Name: MethodMailboxQuery, Path: "/ids/0"},
					},
				},
			}},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest(tt.calls...)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("NewRequest() error = %v", err)
				}
				if len(req.MethodCalls) != len(tt.calls) {
					t.Errorf("MethodCalls len = %d, want %d", len(req.MethodCalls), len(tt.calls))
				}
				return
			}
			if err == nil {
				t.Fatalf("NewRequest() error = nil, want %q", tt.wantErr)
			}
			if !IsValidationError(err) {
				t.Errorf("NewRequest() error type = %T, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewRequest() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewRequest_Using(t *testing.T) {
	tests := []struct {
		name   string
		method string
		want   []string
	}{
		{"mail method", MethodMailboxGet, []string{CapabilityCore, CapabilityMail}},
		{"core method", "Core/echo", []string{CapabilityCore}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest(MethodCall{CallID: "c0", Name: tt.method, Args: map[string]any{}})
			if err != nil {
				t.Fatalf("NewRequest() error = %v", err)
			}
			if strings.Join(req.Using, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Using = %v, want %v", req.Using, tt.want)
			}
		})
	}
}

func TestEmailFilter_IsEmpty(t *testing.T) {
	var nilFilter *EmailFilter
	if !nilFilter.IsEmpty() {
		t.Error("nil filter should be empty")
	}
	if !(&EmailFilter{}).IsEmpty() {
		t.Error("zero filter should be empty")
	}
	if (&EmailFilter{Text: "invoice"}).IsEmpty() {
		t.Error("text filter should not be empty")
	}
	if (&EmailFilter{InMailboxRef: &ResultReference{}}).IsEmpty() {
		t.Error("referenced mailbox filter should not be empty")
	}
}
