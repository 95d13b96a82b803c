// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "BR"
	countryPrefix = "55"
)

// Digits strips everything but ASCII digits from the input.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonical reduces a raw phone string to its canonical dialable form:
// digits only, always carrying the 55 country prefix. Numbers already
// prefixed with 55 are kept as-is, a leading trunk 0 is dropped before
// the prefix is added, and anything else gets the prefix prepended.
// The function is total: it never fails, and Canonical("") == "55".
func Canonical(input string) string {
	digits := Digits(input)

	if strings.HasPrefix(digits, countryPrefix) {
		return digits
	}
	if strings.HasPrefix(digits, "0") {
		return countryPrefix + strings.TrimPrefix(digits, "0")
	}
	return countryPrefix + digits
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
