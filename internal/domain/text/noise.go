package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Noise heuristics for OCR-extracted clause text.
const (
	minPassageRunes      = 25
	maxSingleHangulRatio = 0.30
	minUniqueTokenRatio  = 0.42
	maxDigitRatio        = 0.35
	spacedHangulRatio    = 0.28
	maxRepeatRun         = 2
)

var (
	punctRun      = regexp.MustCompile(`[^\p{L}\p{N}\s]{3,}`)
	hangulWordRun = regexp.MustCompile(`\p{Hangul}{3,}`)
)

// IsNoise reports whether a retrieved passage is OCR garbage that should not
// be shown as evidence: too short, dominated by single syllables, repetitive,
// punctuation-laden or digit-heavy.
func IsNoise(s string) bool {
	t := strings.TrimSpace(s)
	if utf8.RuneCountInString(t) < minPassageRunes {
		return true
	}

	toks := strings.Fields(t)
	if len(toks) > 0 {
		if singleHangulRatio(toks) > maxSingleHangulRatio {
			return true
		}
		if float64(uniqueCount(toks))/float64(len(toks)) < minUniqueTokenRatio {
			return true
		}
		if longestRepeat(toks) > maxRepeatRun {
			return true
		}
	}

	if len(punctRun.FindAllStringIndex(t, -1)) >= 2 {
		return true
	}

	digits, total := 0, 0
	for _, r := range t {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if float64(digits)/float64(total) > maxDigitRatio && !hangulWordRun.MatchString(t) {
		return true
	}
	return false
}

// DisplayClean tidies passage text for display: re-joins letter-spaced Hangul
// ("보 험 금" → "보험금"), shortens runs of the same word to two, drops
// punctuation runs and collapses whitespace.
func DisplayClean(s string) string {
	if s == "" {
		return s
	}
	toks := strings.Fields(s)
	if len(toks) > 0 && singleHangulRatio(toks) >= spacedHangulRatio {
		s = joinSpacedHangul(s)
		toks = strings.Fields(s)
	}
	toks = collapseRepeats(toks, maxRepeatRun)
	s = strings.Join(toks, " ")
	s = punctRun.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func isSingleHangul(tok string) bool {
	r, size := utf8.DecodeRuneInString(tok)
	return size == len(tok) && unicode.Is(unicode.Hangul, r)
}

func singleHangulRatio(toks []string) float64 {
	n := 0
	for _, t := range toks {
		if isSingleHangul(t) {
			n++
		}
	}
	return float64(n) / float64(len(toks))
}

func uniqueCount(toks []string) int {
	seen := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		seen[t] = struct{}{}
	}
	return len(seen)
}

func longestRepeat(toks []string) int {
	best, run := 0, 0
	for i := range toks {
		if i > 0 && toks[i] == toks[i-1] {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}

func collapseRepeats(toks []string, keep int) []string {
	out := make([]string, 0, len(toks))
	run := 0
	for i, t := range toks {
		if i > 0 && t == toks[i-1] {
			run++
		} else {
			run = 1
		}
		if run <= keep {
			out = append(out, t)
		}
	}
	return out
}

// joinSpacedHangul removes whitespace that sits between two Hangul runes.
func joinSpacedHangul(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	var last rune
	for i := 0; i < len(rs); i++ {
		if unicode.IsSpace(rs[i]) && last != 0 {
			j := i
			for j < len(rs) && unicode.IsSpace(rs[j]) {
				j++
			}
			if j < len(rs) && unicode.Is(unicode.Hangul, last) && unicode.Is(unicode.Hangul, rs[j]) {
				i = j - 1
				continue
			}
		}
		b.WriteRune(rs[i])
		last = rs[i]
	}
	return b.String()
}
