package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultFallbackDelay = 1 * time.Second
	DefaultMaxDelay      = 30 * time.Second
)

// BackoffConfig bounds the wait before replaying a rate-limited request.
type BackoffConfig struct {
	FallbackDelay time.Duration
	MaxDelay      time.Duration
}

// BoundedDelay returns how long to wait after a rate-limited response.
// A server hint is honored up to MaxDelay; without one FallbackDelay is used.
func BoundedDelay(cfg BackoffConfig, hint time.Duration, hinted bool) time.Duration {
	cfg = normalizeBackoffConfig(cfg)
	if !hinted {
		hint = cfg.FallbackDelay
	}
	if hint < 0 {
		return 0
	}
	if hint > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return hint
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ParseRetryAfter parses the Retry-After header if present.
func ParseRetryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// IsTimeout reports whether err is a timeout or an expired context deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func normalizeBackoffConfig(cfg BackoffConfig) BackoffConfig {
	if cfg.FallbackDelay < 0 {
		cfg.FallbackDelay = DefaultFallbackDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	return cfg
}
