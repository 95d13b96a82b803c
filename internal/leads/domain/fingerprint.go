package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"leadscout_backend/platform/phone"
)

// Fingerprint derives the dedup identity of a lead from its observable
// attributes. Name and address are lowercased and trimmed, the phone is
// reduced to bare digits, and the three parts are hashed together. The same
// business listed twice in one provider page yields the same fingerprint.
func Fingerprint(name, address, rawPhone string) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(name)),
		strings.ToLower(strings.TrimSpace(address)),
		phone.Digits(rawPhone),
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
