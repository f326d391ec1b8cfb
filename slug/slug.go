// Package slug turns free text into URL-safe identifiers.
package slug

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultSuffixLength is used when a caller passes k <= 0.
	DefaultSuffixLength = 5

	// MaxLength matches the slug column size.
	MaxLength = 255
)

// RandomLetters returns k characters drawn from [a-z0-9] with crypto/rand.
func RandomLetters(k int) string {
	if k <= 0 {
		k = DefaultSuffixLength
	}
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, k)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic("slug: reading random source: " + err.Error())
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}

// Slugify folds text to ASCII, lowercases it and collapses every run of
// characters outside [a-z0-9] into a single hyphen.
func Slugify(text string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		text,
	)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// SlugifyNew returns Slugify(text) followed by "-" and k random characters.
// Blank text yields just the random part. The base is shortened so the
// whole slug fits in MaxLength.
func SlugifyNew(text string, k int) string {
	if k <= 0 {
		k = DefaultSuffixLength
	}
	if k > MaxLength {
		k = MaxLength
	}
	suffix := RandomLetters(k)

	base := Slugify(text)
	room := MaxLength - k - 1
	if base == "" || room <= 0 {
		return suffix
	}
	if len(base) > room {
		base = strings.TrimRight(base[:room], "-")
	}
	return base + "-" + suffix
}
