package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"golang.org/x/term"
)

// KeyringPasswordEnv unlocks the encrypted file keyring without a prompt.
const KeyringPasswordEnv = "FASTMAIL_KEYRING_PASSWORD"

// ErrTokenNotFound means the keyring has no token for the account.
var ErrTokenNotFound = errors.New("no stored token")

// StoredAccount describes a keyring entry. It never carries the token.
type StoredAccount struct {
	Account   string    `json:"account"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	IsDefault bool      `json:"is_default,omitempty"`
}

type storedToken struct {
	APIToken  string    `json:"api_token"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	IsDefault bool      `json:"is_default,omitempty"`
}

var openKeyring = func() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: AppName,
		// Native keychain first; encrypted file when none is available.
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.FileBackend,
		},
		FileDir:          keyringDir(),
		FilePasswordFunc: filePassword,
	})
	if err != nil {
		return nil, err
	}
	return wrapWithTimeout(ring, DefaultKeyringTimeout), nil
}

// filePassword never prompts unless stdin is a terminal; in server mode
// stdin carries the protocol stream.
func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(KeyringPasswordEnv); pw != "" {
		return pw, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("file keyring is locked: set %s", KeyringPasswordEnv)
	}
	return keyring.TerminalPrompt(prompt)
}

func keyringDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/" + AppName + "/keyring"
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/" + AppName + "/keyring"
	}
	return "." + AppName + "/keyring"
}

// SaveToken stores an API token for account. The first stored account
// becomes the default.
func SaveToken(account, token string) error {
	account = normalize(account)
	if account == "" {
		return fmt.Errorf("missing account")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("missing token")
	}

	ring, err := openKeyring()
	if err != nil {
		return err
	}

	accounts, err := listAccounts(ring)
	if err != nil {
		return err
	}
	isDefault := len(accounts) == 0
	for _, a := range accounts {
		if a.Account == account {
			isDefault = a.IsDefault
		}
	}

	payload, err := json.Marshal(storedToken{
		APIToken:  token,
		CreatedAt: time.Now().UTC(),
		IsDefault: isDefault,
	})
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{Key: tokenKey(account), Data: payload})
}

// SetDefaultAccount marks account as the one used when none is configured.
func SetDefaultAccount(account string) error {
	account = normalize(account)
	if account == "" {
		return fmt.Errorf("missing account")
	}

	ring, err := openKeyring()
	if err != nil {
		return err
	}
	keys, err := ring.Keys()
	if err != nil {
		return err
	}

	found := false
	for _, k := range keys {
		name, ok := parseTokenKey(k)
		if !ok {
			continue
		}
		st, err := readToken(ring, k)
		if err != nil {
			continue
		}
		isTarget := name == account
		found = found || isTarget
		if st.IsDefault == isTarget {
			continue
		}
		st.IsDefault = isTarget
		payload, err := json.Marshal(st)
		if err != nil {
			return err
		}
		if err := ring.Set(keyring.Item{Key: k, Data: payload}); err != nil && isTarget {
			return fmt.Errorf("set default account: %w", err)
		}
	}

	if !found {
		return fmt.Errorf("account not found: %s", account)
	}
	return nil
}

// DefaultAccount returns the default stored account, the first stored
// account when none is marked, or "" when the keyring is empty.
func DefaultAccount() (string, error) {
	accounts, err := ListAccounts()
	if err != nil {
		return "", err
	}
	for _, a := range accounts {
		if a.IsDefault {
			return a.Account, nil
		}
	}
	if len(accounts) > 0 {
		return accounts[0].Account, nil
	}
	return "", nil
}

// GetToken returns the stored token for account.
func GetToken(account string) (string, error) {
	account = normalize(account)
	if account == "" {
		return "", fmt.Errorf("missing account")
	}

	ring, err := openKeyring()
	if err != nil {
		return "", err
	}
	st, err := readToken(ring, tokenKey(account))
	if err != nil {
		return "", err
	}
	return st.APIToken, nil
}

// DeleteToken removes the stored token for account.
func DeleteToken(account string) error {
	account = normalize(account)
	if account == "" {
		return fmt.Errorf("missing account")
	}

	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Remove(tokenKey(account)); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%w for %s", ErrTokenNotFound, account)
		}
		return err
	}
	return nil
}

// ListAccounts returns the stored accounts sorted by name.
func ListAccounts() ([]StoredAccount, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return listAccounts(ring)
}

func listAccounts(ring keyring.Keyring) ([]StoredAccount, error) {
	keys, err := ring.Keys()
	if err != nil {
		return nil, err
	}

	accounts := make([]StoredAccount, 0, len(keys))
	for _, k := range keys {
		name, ok := parseTokenKey(k)
		if !ok {
			continue
		}
		st, err := readToken(ring, k)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, StoredAccount{
			Account:   name,
			CreatedAt: st.CreatedAt,
			IsDefault: st.IsDefault,
		})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Account < accounts[j].Account })
	return accounts, nil
}

func readToken(ring keyring.Keyring, key string) (storedToken, error) {
	var st storedToken
	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			name, _ := parseTokenKey(key)
			return st, fmt.Errorf("%w for %s", ErrTokenNotFound, name)
		}
		return st, err
	}
	if err := json.Unmarshal(item.Data, &st); err != nil {
		return st, fmt.Errorf("decode keyring entry: %w", err)
	}
	return st, nil
}

func parseTokenKey(k string) (string, bool) {
	const prefix = "token:"
	if !strings.HasPrefix(k, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(k, prefix)
	if strings.TrimSpace(rest) == "" {
		return "", false
	}
	return rest, true
}

func tokenKey(account string) string {
	return "token:" + account
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
