package config

import (
	"fmt"
	"time"

	"github.com/99designs/keyring"

	cerrors "github.com/salmonumbrella/fastmail-mcp/internal/errors"
)

// DefaultKeyringTimeout bounds each keyring call. A locked keychain can
// otherwise block on an unlock dialog forever.
const DefaultKeyringTimeout = 5 * time.Second

// KeyringTimeoutError reports a keyring call that did not return in time.
type KeyringTimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *KeyringTimeoutError) Error() string {
	return fmt.Sprintf("keyring %s timed out after %s", e.Operation, e.Timeout)
}

type timeoutKeyring struct {
	ring    keyring.Keyring
	timeout time.Duration
}

func wrapWithTimeout(ring keyring.Keyring, timeout time.Duration) keyring.Keyring {
	if ring == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultKeyringTimeout
	}
	return &timeoutKeyring{ring: ring, timeout: timeout}
}

func (k *timeoutKeyring) Get(key string) (keyring.Item, error) {
	return callWithTimeout(k.timeout, "get", func() (keyring.Item, error) {
		return k.ring.Get(key)
	})
}

func (k *timeoutKeyring) GetMetadata(key string) (keyring.Metadata, error) {
	return callWithTimeout(k.timeout, "metadata", func() (keyring.Metadata, error) {
		return k.ring.GetMetadata(key)
	})
}

func (k *timeoutKeyring) Set(item keyring.Item) error {
	_, err := callWithTimeout(k.timeout, "set", func() (struct{}, error) {
		return struct{}{}, k.ring.Set(item)
	})
	return err
}

func (k *timeoutKeyring) Remove(key string) error {
	_, err := callWithTimeout(k.timeout, "remove", func() (struct{}, error) {
		return struct{}{}, k.ring.Remove(key)
	})
	return err
}

func (k *timeoutKeyring) Keys() ([]string, error) {
	return callWithTimeout(k.timeout, "keys", k.ring.Keys)
}

// callWithTimeout abandons fn after timeout; its goroutine finishes in the
// background.
func callWithTimeout[T any](timeout time.Duration, operation string, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		value, err := fn()
		done <- result{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.C:
		var zero T
		return zero, cerrors.WithSuggestion(
			&KeyringTimeoutError{Operation: operation, Timeout: timeout},
			cerrors.SuggestionUnlockKeyring,
		)
	}
}
