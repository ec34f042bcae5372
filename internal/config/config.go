package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	cerrors "github.com/salmonumbrella/fastmail-mcp/internal/errors"
	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
)

// AppName names the config directory and the keyring service.
const AppName = "fastmail-mcp"

// TokenEnvVars are the environment variables checked for the API token, in
// order. Hosting platforms inject the same setting under different names.
var TokenEnvVars = []string{
	"FASTMAIL_API_TOKEN",
	"fastmailApiToken",
	"fastmail_api_token",
	"CONFIG_FASTMAIL_API_TOKEN",
	"CONFIG_fastmailApiToken",
	"SMITHERY_FASTMAIL_API_TOKEN",
	"SMITHERY_fastmailApiToken",
	"MCP_FASTMAIL_API_TOKEN",
	"MCP_fastmailApiToken",
}

// ErrNoToken means no API token was found in the environment, the config
// file or the keyring.
var ErrNoToken = errors.New("no Fastmail API token configured")

// Settings is the resolved runtime configuration.
type Settings struct {
	APIToken  string            `mapstructure:"api_token"`
	Account   string            `mapstructure:"account"`
	BaseURL   string            `mapstructure:"base_url"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	Debug     bool              `mapstructure:"debug"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`

	// ConfigFile is the file the settings were read from, empty if none.
	ConfigFile string `mapstructure:"-"`
}

// RateLimitSettings bound the wait before replaying a rate-limited request.
type RateLimitSettings struct {
	FallbackDelay time.Duration `mapstructure:"fallback_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
}

// JMAP returns the rate limit settings in the form the client takes.
func (r RateLimitSettings) JMAP() *jmap.RateLimitConfig {
	return &jmap.RateLimitConfig{FallbackDelay: r.FallbackDelay, MaxDelay: r.MaxDelay}
}

// DefaultConfigPath returns ~/.config/fastmail-mcp/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", AppName, "config.yaml")
	}
	return filepath.Join(home, ".config", AppName, "config.yaml")
}

// Load reads settings from path, the environment and defaults, in that order
// of increasing precedence for the environment. An empty path uses
// DefaultConfigPath and tolerates its absence; an explicit path must exist.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := jmap.DefaultRateLimitConfig()
	v.SetDefault("base_url", jmap.DefaultBaseURL)
	v.SetDefault("timeout", jmap.DefaultTimeout)
	v.SetDefault("debug", false)
	v.SetDefault("rate_limit.fallback_delay", defaults.FallbackDelay)
	v.SetDefault("rate_limit.max_delay", defaults.MaxDelay)

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if explicit || (!errors.As(err, &pathErr) && !errors.As(err, &notFound)) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		settings.ConfigFile = path
	}

	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	settings.APIToken = strings.TrimSpace(settings.APIToken)
	settings.Account = strings.TrimSpace(settings.Account)
	settings.BaseURL = strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")
	if settings.BaseURL == "" {
		settings.BaseURL = jmap.DefaultBaseURL
	}
	if settings.Timeout <= 0 {
		settings.Timeout = jmap.DefaultTimeout
	}
	return settings, nil
}

func bindEnv(v *viper.Viper) error {
	bindings := []struct {
		key  string
		envs []string
	}{
		{"api_token", TokenEnvVars},
		{"account", []string{"FASTMAIL_ACCOUNT"}},
		{"base_url", []string{"FASTMAIL_BASE_URL"}},
		{"timeout", []string{"FASTMAIL_TIMEOUT"}},
		{"debug", []string{"FASTMAIL_DEBUG"}},
		{"rate_limit.fallback_delay", []string{"FASTMAIL_RATE_LIMIT_FALLBACK_DELAY"}},
		{"rate_limit.max_delay", []string{"FASTMAIL_RATE_LIMIT_MAX_DELAY"}},
	}
	for _, b := range bindings {
		if err := v.BindEnv(append([]string{b.key}, b.envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", b.key, err)
		}
	}
	return nil
}

// TokenSource says where ResolveToken found the token.
type TokenSource string

const (
	SourceSettings TokenSource = "settings"
	SourceKeyring  TokenSource = "keyring"
)

// ResolveToken returns the API token from the settings, falling back to the
// keyring entry for s.Account or the default stored account.
func ResolveToken(s *Settings) (string, TokenSource, error) {
	if s != nil && s.APIToken != "" {
		return s.APIToken, SourceSettings, nil
	}

	account := ""
	if s != nil {
		account = s.Account
	}
	if account == "" {
		def, err := DefaultAccount()
		if err != nil {
			return "", "", cerrors.WithSuggestion(fmt.Errorf("%w: %w", ErrNoToken, err), cerrors.SuggestionSetToken)
		}
		account = def
	}
	if account == "" {
		return "", "", cerrors.WithSuggestion(ErrNoToken, cerrors.SuggestionSetToken)
	}

	token, err := GetToken(account)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return "", "", cerrors.WithSuggestion(fmt.Errorf("%w for %s", ErrNoToken, account), cerrors.SuggestionSetToken)
		}
		return "", "", err
	}
	return token, SourceKeyring, nil
}
