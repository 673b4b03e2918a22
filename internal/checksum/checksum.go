// Package checksum provides the hex digests used for slugs, cache keys and
// webhook signatures.
package checksum

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // identifiers only, not a security boundary
	"crypto/sha256"
	"encoding/hex"
)

// Key returns the hex-encoded SHA-1 digest of s. Slugs and render cache
// file names are derived from it.
func Key(s string) string {
	h := sha1.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(h[:])
}

// HMAC returns the hex-encoded HMAC-SHA256 of body under secret.
func HMAC(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
