package jmap

import (
	"net/http"
	"sync"
	"time"

	"github.com/salmonumbrella/fastmail-mcp/internal/transport"
)

const (
	// DefaultBaseURL is the Fastmail JMAP API base URL
	DefaultBaseURL = "https://api.fastmail.com"

	// SessionPath is the path to the JMAP session endpoint
	SessionPath = "/jmap/session"

	// DefaultTimeout bounds every network call made by the client
	DefaultTimeout = 30 * time.Second

	// Capability URIs used by this client
	CapabilityCore = "urn:ietf:params:jmap:core"
	CapabilityMail = "urn:ietf:params:jmap:mail"

	// maxErrorBody caps how much of a failed response body is kept for error messages
	maxErrorBody = 4096
)

// RateLimitConfig bounds the single wait performed after a rate-limited request.
type RateLimitConfig struct {
	// FallbackDelay is used when the server gives no Retry-After hint (default: 1s)
	FallbackDelay time.Duration

	// MaxDelay caps a server-provided hint (default: 30s)
	MaxDelay time.Duration
}

// DefaultRateLimitConfig returns a RateLimitConfig with sensible defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		FallbackDelay: transport.DefaultFallbackDelay,
		MaxDelay:      transport.DefaultMaxDelay,
	}
}

func (r *RateLimitConfig) backoff() transport.BackoffConfig {
	return transport.BackoffConfig{
		FallbackDelay: r.FallbackDelay,
		MaxDelay:      r.MaxDelay,
	}
}

// Client is a read-only JMAP client for a single Fastmail account.
// It owns the bearer token and the cached session; nothing is shared between clients.
type Client struct {
	baseURL   string
	http      *http.Client
	rateLimit *RateLimitConfig
	sessions  *sessionCache
	mu        sync.RWMutex
}

// Compile-time interface compliance check
var _ MailReader = (*Client)(nil)

// NewClient creates a new JMAP client with the provided API token
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, DefaultBaseURL)
}

// NewClientWithBaseURL creates a new JMAP client with a custom base URL
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
		rateLimit: DefaultRateLimitConfig(),
	}
	c.sessions = newSessionCache(token, c.fetchSession)
	return c
}

// SetRateLimitConfig sets a custom rate limit configuration (nil = use defaults)
func (c *Client) SetRateLimitConfig(config *RateLimitConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if config == nil {
		c.rateLimit = DefaultRateLimitConfig()
	} else {
		c.rateLimit = config
	}
}

// SetHTTPClient sets a custom HTTP client for the JMAP client.
// A client without a timeout gets DefaultTimeout.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = DefaultTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.http = httpClient
}

// SetTimeout changes the timeout applied to every network call.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.http = &http.Client{
		Timeout:   timeout,
		Transport: c.http.Transport,
	}
}

// SetToken replaces the bearer token. The cached session is discarded on next use.
func (c *Client) SetToken(token string) {
	c.sessions.setToken(token)
}

// ClearSession clears the cached session, forcing a new session fetch on next request
func (c *Client) ClearSession() {
	c.sessions.clear()
}

func (c *Client) httpClient() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.http
}

func (c *Client) rateLimitConfig() *RateLimitConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLimit
}

// networkError classifies a failed round trip.
func networkError(op string, err error) error {
	return &NetworkError{
		Op:      op,
		Timeout: transport.IsTimeout(err),
		Err:     err,
	}
}
