// Package dedup prunes duplicate evidence while keeping a floor of chunks for
// the synthesizer.
package dedup

import (
	"math"
	"strconv"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/text"
)

// Defaults.
const (
	DefaultThreshold = 0.965
	DefaultWindow    = 8
	DefaultMinRatio  = 0.3
	DefaultMinCount  = 3
)

// AssignUIDs returns copies of chunks with UID set to the hash of their
// DedupKey. Repeats of a key get an occurrence suffix so every UID in the
// list is distinct and the first occurrence keeps the bare hash.
func AssignUIDs(chunks []evidence.Chunk) []evidence.Chunk {
	out := evidence.Clone(chunks)
	seen := make(map[string]int, len(out))
	for i := range out {
		uid := out[i].DedupKey().Hash()
		n := seen[uid]
		seen[uid] = n + 1
		if n > 0 {
			uid += "#" + strconv.Itoa(n)
		}
		out[i].UID = uid
	}
	return out
}

// Exact keeps the first chunk per DedupKey, in order. Survivors without a
// UID get the key hash.
func Exact(chunks []evidence.Chunk) []evidence.Chunk {
	if len(chunks) == 0 {
		return []evidence.Chunk{}
	}
	seen := make(map[evidence.Key]struct{}, len(chunks))
	out := make([]evidence.Chunk, 0, len(chunks))
	for _, c := range chunks {
		k := c.DedupKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		c = c.Clone()
		if c.UID == "" {
			c.UID = k.Hash()
		}
		out = append(out, c)
	}
	return out
}

// Fuzzy drops chunks whose folded text is identical to, or at least
// threshold similar to, one of the last window accepted chunks. Order is
// preserved. Non-positive arguments take the defaults.
func Fuzzy(chunks []evidence.Chunk, threshold float64, window int) []evidence.Chunk {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	out := make([]evidence.Chunk, 0, len(chunks))
	recent := make([][]string, 0, window)

	for _, c := range chunks {
		folded := runes(text.Fold(c.Text))
		if isNear(folded, recent, threshold) {
			continue
		}
		out = append(out, c.Clone())
		if len(recent) == window {
			recent = recent[1:]
		}
		recent = append(recent, folded)
	}
	return out
}

// isNear checks seq against each recent text, using the cheap upper bounds
// before the full ratio.
func isNear(seq []string, recent [][]string, threshold float64) bool {
	if len(recent) == 0 {
		return false
	}
	m := difflib.NewMatcher(nil, seq)
	for _, prev := range recent {
		if equal(seq, prev) {
			return true
		}
		m.SetSeq1(prev)
		if m.RealQuickRatio() < threshold || m.QuickRatio() < threshold {
			continue
		}
		if m.Ratio() >= threshold {
			return true
		}
	}
	return false
}

// EnsureMinimum backfills pruned from original, in original order and
// skipping UIDs already present (chunks without a UID are never skipped), until it holds
// max(minCount, ceil(len(original)*minRatio)) chunks or original runs out.
func EnsureMinimum(original, pruned []evidence.Chunk, minRatio float64, minCount int) []evidence.Chunk {
	need := max(minCount, int(math.Ceil(float64(len(original))*minRatio)))
	out := evidence.Clone(pruned)
	if out == nil {
		out = []evidence.Chunk{}
	}
	if len(out) >= need {
		return out
	}

	have := make(map[string]struct{}, len(out))
	for _, c := range out {
		if c.UID != "" {
			have[c.UID] = struct{}{}
		}
	}
	for _, c := range original {
		if len(out) >= need {
			break
		}
		if c.UID != "" {
			if _, ok := have[c.UID]; ok {
				continue
			}
			have[c.UID] = struct{}{}
		}
		out = append(out, c.Clone())
	}
	return out
}

// runes splits s into one string per rune, the element type difflib compares.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
