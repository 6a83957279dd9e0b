// Package content holds the text-processing pieces of the contribution and
// query pipelines: deduplication fingerprints, PII sanitisation, and the
// taxonomy classifier.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns the deduplication key for a piece of result content:
// the hex SHA-256 of the trimmed, lower-cased text. Results that differ only
// in case or surrounding whitespace collapse to the same key.
func Fingerprint(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
