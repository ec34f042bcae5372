package jmap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonpointer"
)

// MethodCall is one invocation inside a batch. It marshals as the JMAP
// triple [name, arguments, callId].
type MethodCall struct {
	CallID string
	Name   string
	Args   any
}

// MarshalJSON encodes the call as a JMAP invocation triple.
func (m MethodCall) MarshalJSON() ([]byte, error) {
	args := m.Args
	if args == nil {
		args = struct{}{}
	}
	return json.Marshal([3]any{m.Name, args, m.CallID})
}

// ResultReference feeds part of an earlier call's result into a later call's
// argument.
type ResultReference struct {
	ResultOf string `json:"resultOf"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// referrer is implemented by arguments that carry result references.
type referrer interface {
	References() []ResultReference
}

// validator is implemented by arguments that can reject themselves before sending.
type validator interface {
	Validate() error
}

// Request is the body of a JMAP API request.
type Request struct {
	Using       []string     `json:"using"`
	MethodCalls []MethodCall `json:"methodCalls"`
}

// NewRequest assembles calls into a request and checks that every result
// reference points to an earlier call of the named method with a valid path.
func NewRequest(calls ...MethodCall) (*Request, error) {
	if len(calls) == 0 {
		return nil, &ValidationError{Field: "methodCalls", Message: "batch must contain at least one call"}
	}

	methods := make(map[string]string, len(calls))
	using := []string{CapabilityCore}
	needsMail := false

	for i, call := range calls {
		if call.CallID == "" {
			return nil, &ValidationError{Field: "methodCalls", Message: fmt.Sprintf("call %d has no call id", i)}
		}
		if call.Name == "" {
			return nil, &ValidationError{Field: call.CallID, Message: "method name is required"}
		}
		if _, dup := methods[call.CallID]; dup {
			return nil, &ValidationError{Field: call.CallID, Message: "duplicate call id"}
		}

		if v, ok := call.Args.(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		if r, ok := call.Args.(referrer); ok {
			for _, ref := range r.References() {
				if err := checkReference(ref, methods); err != nil {
					return nil, &ValidationError{Field: call.CallID, Message: err.Error()}
				}
			}
		}

		methods[call.CallID] = call.Name
		if isMailMethod(call.Name) {
			needsMail = true
		}
	}

	if needsMail {
		using = append(using, CapabilityMail)
	}

	return &Request{
		Using:       using,
		MethodCalls: calls,
	}, nil
}

func checkReference(ref ResultReference, earlier map[string]string) error {
	method, ok := earlier[ref.ResultOf]
	if !ok {
		return fmt.Errorf("reference to unknown or later call %q", ref.ResultOf)
	}
	if method != ref.Name {
		return fmt.Errorf("reference names %s but call %q is %s", ref.Name, ref.ResultOf, method)
	}
	if ref.Path == "" {
		return fmt.Errorf("reference to %q has an empty path", ref.ResultOf)
	}
	if _, err := jsonpointer.Parse(ref.Path); err != nil {
		return fmt.Errorf("reference path %q: %w", ref.Path, err)
	}
	return nil
}

func isMailMethod(name string) bool {
	for _, prefix := range []string{"Mailbox/", "Email/", "Thread/", "SearchSnippet/", "Identity/"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (r *Request) methodNames() []string {
	names := make([]string, len(r.MethodCalls))
	for i, call := range r.MethodCalls {
		names[i] = call.Name
	}
	return names
}
