package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ContentHash computes the SHA-256 digest of normalized clause body
// text, hex-encoded. The input is NFC-normalized first so that visually
// identical text hashes identically regardless of the source document's
// Unicode composition.
func ContentHash(bodyText string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(bodyText)))
	return hex.EncodeToString(sum[:])
}

// ClauseKey derives the stable clause identity from an instrument key
// prefix and the clause number (or title, for unnumbered clauses).
//
// Format: UPPER(sanitize(prefix) + "_" + sanitize(numberOrTitle)).
// The key is a pure function of its inputs: re-parsing identical
// content always yields identical keys.
func ClauseKey(prefix, numberOrTitle string) string {
	return strings.ToUpper(sanitizeKeyPart(prefix) + "_" + sanitizeKeyPart(numberOrTitle))
}

// sanitizeKeyPart replaces every run of non-alphanumeric characters
// with a single underscore and trims leading/trailing underscores.
func sanitizeKeyPart(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range norm.NFC.String(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// NormalizeText collapses all whitespace runs to single spaces, trims,
// and applies NFC normalization. Used for clause body text and heading
// text before hashing or comparison.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
