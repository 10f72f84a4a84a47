// Package text holds the deterministic string transforms shared by the pipeline:
// query normalization, comparison folding, noise detection and display cleanup.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// glyphs are bullet and markup characters that carry no meaning for retrieval.
const glyphs = "•◦▪▫■□●○◆◇▶▷►▸▹※☞☛·∙‣⁃◎★☆❖➢➤→*#`"

// zeroWidth characters are removed outright.
const zeroWidth = "\u200b\u200c\u200d\u2060\ufeff"

// Normalize canonicalizes raw user or passage text: NFC, bullet/markup glyphs
// removed, whitespace runs collapsed to one space, trimmed.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := norm.NFC.String(raw)
	s = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(zeroWidth, r):
			return -1
		case strings.ContainsRune(glyphs, r):
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// foldChain strips diacritics: decompose, drop combining marks, recompose (keeps Hangul intact).
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Fold produces the comparison form used by near-duplicate detection:
// diacritics and punctuation stripped, full/half width and case folded,
// whitespace collapsed.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(foldChain(), s)
	if err != nil {
		folded = norm.NFKC.String(s)
	}
	folded = width.Fold.String(folded)
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || strings.ContainsRune(zeroWidth, r) {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// Truncate cuts s to at most n runes. The boolean reports whether it was cut.
func Truncate(s string, n int) (string, bool) {
	if n <= 0 {
		return "", s != ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// Len returns the rune length of s.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}
