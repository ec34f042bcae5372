package jmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/salmonumbrella/fastmail-mcp/internal/logging"
	"github.com/salmonumbrella/fastmail-mcp/internal/transport"
)

// Session is the server-advertised description of the authenticated user's
// accounts, capabilities and endpoints.
type Session struct {
	APIURL          string
	DownloadURL     string
	UploadURL       string
	Username        string
	State           string
	Capabilities    map[string]json.RawMessage
	Accounts        map[string]Account
	PrimaryAccounts map[string]string

	// MailAccountID is the account used for every mail operation.
	MailAccountID string

	// Core holds the limits advertised by the core capability.
	Core CoreCapability

	FetchedAt time.Time

	token string
}

// Account describes one account the user can access.
type Account struct {
	Name                string                     `json:"name"`
	IsPersonal          bool                       `json:"isPersonal"`
	IsReadOnly          bool                       `json:"isReadOnly"`
	AccountCapabilities map[string]json.RawMessage `json:"accountCapabilities"`
}

// HasCapability reports whether the account advertises the capability URI.
func (a Account) HasCapability(uri string) bool {
	_, ok := a.AccountCapabilities[uri]
	return ok
}

// CoreCapability holds the server limits of urn:ietf:params:jmap:core.
type CoreCapability struct {
	MaxSizeRequest        int64 `json:"maxSizeRequest"`
	MaxCallsInRequest     int   `json:"maxCallsInRequest"`
	MaxObjectsInGet       int   `json:"maxObjectsInGet"`
	MaxConcurrentRequests int   `json:"maxConcurrentRequests"`
}

type sessionDocument struct {
	Capabilities    map[string]json.RawMessage `json:"capabilities"`
	Accounts        map[string]Account         `json:"accounts"`
	PrimaryAccounts map[string]string          `json:"primaryAccounts"`
	Username        string                     `json:"username"`
	APIURL          string                     `json:"apiUrl"`
	DownloadURL     string                     `json:"downloadUrl"`
	UploadURL       string                     `json:"uploadUrl"`
	State           string                     `json:"state"`
}

// GetSession returns the cached session, discovering it first when nothing is
// cached, the token changed, or forceRefresh is set.
func (c *Client) GetSession(ctx context.Context, forceRefresh bool) (*Session, error) {
	return c.sessions.get(ctx, forceRefresh)
}

// refreshSession replaces a session the server rejected. When another caller
// already replaced it, the newer session is returned without a new discovery.
func (c *Client) refreshSession(ctx context.Context, stale *Session) (*Session, error) {
	return c.sessions.refresh(ctx, stale)
}

func (c *Client) fetchSession(ctx context.Context, token string) (*Session, error) {
	logger := logging.FromContext(ctx)
	sessionURL := strings.TrimRight(c.baseURL, "/") + SessionPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sessionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	logger.Debug("discovering JMAP session", "url", sessionURL)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, networkError("fetching session", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, rateLimitError(resp)
		}
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Message:    "session request rejected",
			Err:        transport.NewHTTPError("fetching session", resp, body),
		}
	}

	var doc sessionDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		if transport.IsTimeout(err) {
			return nil, networkError("reading session", err)
		}
		return nil, &ProtocolError{Message: "decoding session", Err: err}
	}

	session, err := doc.toSession(token)
	if err != nil {
		return nil, err
	}

	logger.Debug("JMAP session ready",
		"account_id", session.MailAccountID,
		"state", session.State,
		"max_calls_in_request", session.Core.MaxCallsInRequest,
	)
	return session, nil
}

func (d *sessionDocument) toSession(token string) (*Session, error) {
	if d.APIURL == "" {
		return nil, &ProtocolError{Message: "session has no apiUrl"}
	}

	accountID, err := d.mailAccountID()
	if err != nil {
		return nil, err
	}

	var core CoreCapability
	if raw, ok := d.Capabilities[CapabilityCore]; ok {
		if err := json.Unmarshal(raw, &core); err != nil {
			return nil, &ProtocolError{Message: "decoding core capability", Err: err}
		}
	}

	return &Session{
		APIURL:          d.APIURL,
		DownloadURL:     d.DownloadURL,
		UploadURL:       d.UploadURL,
		Username:        d.Username,
		State:           d.State,
		Capabilities:    d.Capabilities,
		Accounts:        d.Accounts,
		PrimaryAccounts: d.PrimaryAccounts,
		MailAccountID:   accountID,
		Core:            core,
		FetchedAt:       time.Now(),
		token:           token,
	}, nil
}

// mailAccountID picks the primary mail account, falling back to the first
// account (by id) that carries the mail capability.
func (d *sessionDocument) mailAccountID() (string, error) {
	if id := d.PrimaryAccounts[CapabilityMail]; id != "" {
		if _, ok := d.Accounts[id]; ok {
			return id, nil
		}
	}

	ids := make([]string, 0, len(d.Accounts))
	for id, account := range d.Accounts {
		if account.HasCapability(CapabilityMail) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", &AuthError{Message: "token grants no mail access", Err: ErrMailCapabilityMissing}
	}
	sort.Strings(ids)
	return ids[0], nil
}

// sessionCache holds at most one session per client and lets a single caller
// discover while the others wait for its result.
type sessionCache struct {
	mu       sync.Mutex
	token    string
	current  *Session
	inflight *sessionFetch
	fetch    func(ctx context.Context, token string) (*Session, error)
}

type sessionFetch struct {
	done    chan struct{}
	session *Session
	err     error
}

func newSessionCache(token string, fetch func(context.Context, string) (*Session, error)) *sessionCache {
	return &sessionCache{token: token, fetch: fetch}
}

func (sc *sessionCache) get(ctx context.Context, force bool) (*Session, error) {
	sc.mu.Lock()
	if !force && sc.usableLocked(sc.current) {
		s := sc.current
		sc.mu.Unlock()
		return s, nil
	}
	return sc.discoverLocked(ctx, true)
}

func (sc *sessionCache) refresh(ctx context.Context, stale *Session) (*Session, error) {
	sc.mu.Lock()
	if sc.current != stale && sc.usableLocked(sc.current) {
		s := sc.current
		sc.mu.Unlock()
		return s, nil
	}
	return sc.discoverLocked(ctx, true)
}

func (sc *sessionCache) setToken(token string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.token = token
}

func (sc *sessionCache) clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.current = nil
}

func (sc *sessionCache) usableLocked(s *Session) bool {
	return s != nil && s.token == sc.token
}

// discoverLocked must be called with sc.mu held; it releases the lock.
// A caller that joined a discovery abandoned by its leader's context starts
// its own, at most once, if retry is set and its own context is still live.
func (sc *sessionCache) discoverLocked(ctx context.Context, retry bool) (*Session, error) {
	if f := sc.inflight; f != nil {
		sc.mu.Unlock()
		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, networkError("waiting for session", ctx.Err())
		}
		if !retry || !abandoned(f.err) || ctx.Err() != nil {
			return f.session, f.err
		}

		sc.mu.Lock()
		if sc.usableLocked(sc.current) {
			s := sc.current
			sc.mu.Unlock()
			return s, nil
		}
		return sc.discoverLocked(ctx, false)
	}

	f := &sessionFetch{done: make(chan struct{})}
	sc.inflight = f
	token := sc.token
	sc.mu.Unlock()

	s, err := sc.fetch(ctx, token)

	sc.mu.Lock()
	if err == nil {
		sc.current = s
	}
	sc.inflight = nil
	f.session, f.err = s, err
	close(f.done)
	sc.mu.Unlock()

	return s, err
}

func abandoned(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
