// Domain Name Normalization and Validation
//
// Query names arrive from the wire as absolute names; the resolver works
// with the trailing root dot stripped and the original case preserved, so
// cache lookups use exact-match semantics.
//
// Validation Rules (RFC 1035/1123/3696):
// - Total length: 1-253 characters
// - Label length: 1-63 characters each
// - Valid characters: a-z, A-Z, 0-9, hyphens (not at label start/end)
// - TLD requirements: minimum 2 chars, must start with a letter, not all-numeric
//
// ApexDomain uses golang.org/x/net/publicsuffix to annotate names with their
// registrable domain ("example.com", "user.github.io") for log output; it is
// best-effort and never rejects a name.

package models

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// TrimName strips the trailing root dot from a query name.
func TrimName(name string) string {
	return strings.TrimSuffix(name, ".")
}

// ValidateDomainName checks that name is syntactically resolvable. The
// resolver rejects invalid names before any network I/O.
func ValidateDomainName(name string) error {
	name = TrimName(name)

	if len(name) == 0 || len(name) > 253 {
		return fmt.Errorf("domain name length invalid: %d characters (must be 1-253)", len(name))
	}

	labels := strings.Split(name, ".")
	for i, label := range labels {
		if err := validateLabel(label); err != nil {
			return fmt.Errorf("invalid label %q: %w", label, err)
		}

		if len(labels) > 1 && i == len(labels)-1 {
			if err := validateTLD(label); err != nil {
				return fmt.Errorf("invalid TLD %q: %w", label, err)
			}
		}
	}

	return nil
}

// ApexDomain returns the registrable domain for name, or "" when the public
// suffix list cannot determine one.
func ApexDomain(name string) string {
	apex, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(TrimName(name)))
	if err != nil {
		return ""
	}
	return apex
}

// validateLabel validates an individual DNS label.
func validateLabel(label string) error {
	if len(label) == 0 || len(label) > 63 {
		return fmt.Errorf("label length invalid: %d characters (must be 1-63)", len(label))
	}

	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("label cannot start or end with hyphen")
	}

	for i, r := range label {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-') {
			return fmt.Errorf("invalid character %q at position %d", r, i)
		}
	}

	return nil
}

// validateTLD validates top-level domain requirements.
func validateTLD(tld string) error {
	if len(tld) < 2 {
		return fmt.Errorf("TLD too short: %d characters (minimum 2)", len(tld))
	}

	allNumeric := true
	for _, r := range tld {
		if r < '0' || r > '9' {
			allNumeric = false
			break
		}
	}
	if allNumeric {
		return fmt.Errorf("TLD cannot be all numeric")
	}

	first := tld[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return fmt.Errorf("TLD must start with a letter")
	}

	return nil
}
