// Package knol fingerprints imported entries so re-imports are idempotent.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/knolnotes/internal/parser"
)

// Normalize joins the entry's fields after cleaning each one: line endings
// are normalised, surrounding whitespace trimmed and text lowercased.
func Normalize(e parser.Entry) string {
	normalizePart := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return strings.ToLower(p)
	}

	// Fields are newline-separated so "ab"+"c" and "a"+"bc" differ.
	return strings.Join([]string{
		normalizePart(e.Content),
		normalizePart(e.HiddenContent),
		normalizePart(e.Collection),
	}, "\n")
}

// Hash returns the SHA-256 of the normalised entry as a hex string.
func Hash(e parser.Entry) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(Normalize(e))))
}
