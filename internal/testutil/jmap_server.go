package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/qri-io/jsonpointer"
)

const (
	// SessionPath is where JMAPServer serves its session document
	SessionPath = "/jmap/session"

	// APIPath is the apiUrl path advertised by JMAPServer
	APIPath = "/jmap/api/"

	capabilityCore = "urn:ietf:params:jmap:core"
	capabilityMail = "urn:ietf:params:jmap:mail"
)

// MethodError is returned by a MethodHandler to answer a call with an
// "error" invocation.
type MethodError struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// MethodHandler answers one method call. Args have their result references
// already resolved.
type MethodHandler func(args map[string]any) (any, *MethodError)

// Invocation is a method call as the client sent it.
type Invocation struct {
	Name   string
	Args   map[string]any
	CallID string
}

// Failure is a canned HTTP failure served instead of a normal response.
type Failure struct {
	Status int
	Header http.Header
	Body   string
}

// JMAPServer is a MockServer with a session endpoint and a JMAP API endpoint.
type JMAPServer struct {
	*MockServer

	AccountID string

	mu              sync.Mutex
	methods         map[string]MethodHandler
	requests        [][]Invocation
	apiTokens       []string
	sessionTokens   []string
	apiFailures     []Failure
	sessionFailures []Failure
	session         func(apiURL string) map[string]any
}

// NewJMAPServer starts a server whose session makes accountID the primary
// mail account.
func NewJMAPServer(accountID string) *JMAPServer {
	js := &JMAPServer{
		MockServer: NewMockServer(),
		AccountID:  accountID,
		methods:    make(map[string]MethodHandler),
	}
	js.session = js.defaultSession
	js.Handle(http.MethodGet, SessionPath, js.serveSession)
	js.Handle(http.MethodPost, APIPath, js.serveAPI)
	return js
}

// HandleMethod registers the handler for a JMAP method name.
func (s *JMAPServer) HandleMethod(name string, h MethodHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = h
}

// SetSession replaces the session document. build receives the apiUrl to advertise.
func (s *JMAPServer) SetSession(build func(apiURL string) map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = build
}

// FailAPI queues failures served by the next API requests, in order.
func (s *JMAPServer) FailAPI(failures ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiFailures = append(s.apiFailures, failures...)
}

// FailSession queues failures served by the next session requests, in order.
func (s *JMAPServer) FailSession(failures ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionFailures = append(s.sessionFailures, failures...)
}

// SessionHits returns the number of session discoveries.
func (s *JMAPServer) SessionHits() int {
	return s.Hits(http.MethodGet, SessionPath)
}

// APIHits returns the number of API requests.
func (s *JMAPServer) APIHits() int {
	return s.Hits(http.MethodPost, APIPath)
}

// Requests returns the method calls of every API request that was not
// answered with a canned failure.
func (s *JMAPServer) Requests() [][]Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]Invocation(nil), s.requests...)
}

// APITokens returns the bearer tokens seen by the API endpoint, in order.
func (s *JMAPServer) APITokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.apiTokens...)
}

// SessionTokens returns the bearer tokens seen by the session endpoint, in order.
func (s *JMAPServer) SessionTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sessionTokens...)
}

func (s *JMAPServer) defaultSession(apiURL string) map[string]any {
	return map[string]any{
		"capabilities": map[string]any{
			capabilityCore: map[string]any{
				"maxSizeRequest":        10000000,
				"maxCallsInRequest":     16,
				"maxObjectsInGet":       500,
				"maxConcurrentRequests": 4,
			},
			capabilityMail: map[string]any{},
		},
		"accounts": map[string]any{
			s.AccountID: map[string]any{
				"name":       "user@example.com",
				"isPersonal": true,
				"isReadOnly": false,
				"accountCapabilities": map[string]any{
					capabilityMail: map[string]any{},
				},
			},
		},
		"primaryAccounts": map[string]any{
			capabilityMail: s.AccountID,
		},
		"username": "user@example.com",
		"apiUrl":   apiURL,
		"state":    "session-state-1",
	}
}

func (s *JMAPServer) serveSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sessionTokens = append(s.sessionTokens, bearer(r))
	failure, failed := pop(&s.sessionFailures)
	build := s.session
	s.mu.Unlock()

	if failed {
		writeFailure(w, failure)
		return
	}
	WriteJSON(w, http.StatusOK, build(s.URL()+APIPath))
}

func (s *JMAPServer) serveAPI(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.apiTokens = append(s.apiTokens, bearer(r))
	failure, failed := pop(&s.apiFailures)
	s.mu.Unlock()

	if failed {
		writeFailure(w, failure)
		return
	}

	var req struct {
		Using       []string            `json:"using"`
		MethodCalls [][]json.RawMessage `json:"methodCalls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, "urn:ietf:params:jmap:error:notJSON", err.Error())
		return
	}

	invocations := make([]Invocation, 0, len(req.MethodCalls))
	for _, triple := range req.MethodCalls {
		inv, err := decodeInvocation(triple)
		if err != nil {
			writeProblem(w, "urn:ietf:params:jmap:error:notRequest", err.Error())
			return
		}
		invocations = append(invocations, inv)
	}

	s.mu.Lock()
	s.requests = append(s.requests, invocations)
	s.mu.Unlock()

	results := make(map[string]callResult, len(invocations))
	responses := make([][3]any, 0, len(invocations))
	for _, inv := range invocations {
		name, result := s.invoke(inv, results)
		responses = append(responses, [3]any{name, result, inv.CallID})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"methodResponses": responses,
		"sessionState":    "session-state-1",
	})
}

type callResult struct {
	name string
	data any
}

func (s *JMAPServer) invoke(inv Invocation, results map[string]callResult) (string, any) {
	resolved, err := resolveReferences(inv.Args, results)
	if err != nil {
		return "error", MethodError{Type: "invalidResultReference", Description: err.Error()}
	}

	s.mu.Lock()
	handler, ok := s.methods[inv.Name]
	s.mu.Unlock()
	if !ok {
		return "error", MethodError{Type: "unknownMethod", Description: inv.Name}
	}

	result, merr := handler(resolved.(map[string]any))
	if merr != nil {
		return "error", *merr
	}

	// Round-trip through JSON so later references see plain JSON values.
	var generic any
	if data, err := json.Marshal(result); err == nil {
		_ = json.Unmarshal(data, &generic)
	}
	results[inv.CallID] = callResult{name: inv.Name, data: generic}
	return inv.Name, result
}

func resolveReferences(v any, results map[string]callResult) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, val := range t {
			if strings.HasPrefix(key, "#") {
				resolved, err := resolveReference(val, results)
				if err != nil {
					return nil, err
				}
				out[strings.TrimPrefix(key, "#")] = resolved
				continue
			}
			resolved, err := resolveReferences(val, results)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			resolved, err := resolveReferences(val, results)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveReference(raw any, results map[string]callResult) (any, error) {
	ref, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("result reference is not an object")
	}
	resultOf, _ := ref["resultOf"].(string)
	name, _ := ref["name"].(string)
	path, _ := ref["path"].(string)

	prev, ok := results[resultOf]
	if !ok {
		return nil, fmt.Errorf("no result for call %q", resultOf)
	}
	if prev.name != name {
		return nil, fmt.Errorf("call %q is %s, not %s", resultOf, prev.name, name)
	}

	ptr, err := jsonpointer.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	val, err := ptr.Eval(prev.data)
	if err != nil || val == nil {
		return nil, fmt.Errorf("path %q not found", path)
	}
	return val, nil
}

func decodeInvocation(triple []json.RawMessage) (Invocation, error) {
	var inv Invocation
	if len(triple) != 3 {
		return inv, fmt.Errorf("invocation has %d elements", len(triple))
	}
	if err := json.Unmarshal(triple[0], &inv.Name); err != nil {
		return inv, err
	}
	if err := json.Unmarshal(triple[1], &inv.Args); err != nil {
		return inv, err
	}
	if err := json.Unmarshal(triple[2], &inv.CallID); err != nil {
		return inv, err
	}
	return inv, nil
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func pop(queue *[]Failure) (Failure, bool) {
	if len(*queue) == 0 {
		return Failure{}, false
	}
	f := (*queue)[0]
	*queue = (*queue)[1:]
	return f, true
}

func writeFailure(w http.ResponseWriter, f Failure) {
	for k, vals := range f.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(f.Status)
	//nolint:errcheck // test utility: write errors not actionable
	w.Write([]byte(f.Body))
}

func writeProblem(w http.ResponseWriter, problemType, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusBadRequest)
	//nolint:errcheck // test utility: encoding errors not actionable
	json.NewEncoder(w).Encode(map[string]any{
		"type":   problemType,
		"status": http.StatusBadRequest,
		"detail": detail,
	})
}
