package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// addrSpec is the dot-atom form of RFC 5322: a local part of atext and dots,
// and a domain of LDH labels.
var addrSpec = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// maxAddressLength is the RFC 5321 path limit.
const maxAddressLength = 254

// IsValidEmail reports whether s is a bare login address. Display names,
// angle brackets and control characters are rejected, since the value
// becomes a keyring key.
func IsValidEmail(s string) bool {
	if len(s) < 3 || len(s) > maxAddressLength {
		return false
	}
	if strings.ContainsAny(s, "<> ") {
		return false
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return false
	}
	return addrSpec.MatchString(s)
}
