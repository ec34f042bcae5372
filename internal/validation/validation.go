package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// JMAP ids are 1 to 255 characters of the URL-safe base64 alphabet.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,255}$`)

// Account validates a keyring account name, which is the Fastmail login address.
func Account(account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("account is required")
	}
	if !IsValidEmail(account) {
		return fmt.Errorf("invalid account %q: expected an email address", account)
	}
	return nil
}

// ID validates a JMAP object id.
func ID(name, id string) error {
	if id == "" {
		return fmt.Errorf("%s is required", name)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("invalid %s %q", name, id)
	}
	return nil
}

// NonNegativeInt checks that an integer value is zero or greater
func NonNegativeInt(name string, value int) error {
	if value < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}
