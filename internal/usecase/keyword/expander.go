// Package keyword expands a query into lexical search terms using a fixed
// domain thesaurus, verb-ending swaps and compound-boundary recombination.
package keyword

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxTerms bounds the expansion when the caller passes 0.
const DefaultMaxTerms = 8

// maxRecombinations caps boundary-split variants so they do not crowd out synonyms.
const maxRecombinations = 2

// Expander expands queries. It holds only immutable tables and is safe for concurrent use.
type Expander struct {
	synonyms map[string][]string
	keys     []string
}

// NewExpander creates an expander over the built-in thesaurus.
func NewExpander() *Expander {
	keys := make([]string, 0, len(synonyms))
	for k := range synonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Expander{synonyms: synonyms, keys: keys}
}

// Expand returns at most maxTerms distinct terms, longest first, always
// including the query itself. Ties keep generation order: query, its words,
// synonyms, ending variants, recombinations.
func (e *Expander) Expand(query string, maxTerms int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}

	set := newOrderedSet()
	set.add(query)
	for _, w := range strings.Fields(query) {
		if utf8.RuneCountInString(w) >= 2 {
			set.add(w)
		}
	}

	for _, k := range e.keys {
		if strings.Contains(query, k) {
			for _, syn := range e.synonyms[k] {
				set.add(syn)
			}
		}
	}

	for _, v := range endingVariants(query) {
		set.add(v)
	}
	for _, v := range recombinations(query) {
		set.add(v)
	}

	terms := set.items
	sort.SliceStable(terms, func(i, j int) bool {
		return utf8.RuneCountInString(terms[i]) > utf8.RuneCountInString(terms[j])
	})
	if len(terms) <= maxTerms {
		return terms
	}

	terms = terms[:maxTerms]
	for _, t := range terms {
		if t == query {
			return terms
		}
	}
	terms[maxTerms-1] = query
	return terms
}

// endingVariants swaps a token-final verb ending for each other member of its family.
func endingVariants(query string) []string {
	tokens := strings.Fields(query)
	var out []string
	for i, tok := range tokens {
		for _, fam := range endingFamilies {
			m := longestSuffix(tok, fam)
			if m == "" {
				continue
			}
			stem := strings.TrimSuffix(tok, m)
			for _, alt := range fam {
				if alt == m {
					continue
				}
				out = append(out, replaceToken(tokens, i, stem+alt))
			}
			break
		}
	}
	return out
}

func longestSuffix(tok string, fam []string) string {
	best := ""
	for _, m := range fam {
		if len(m) > len(best) && strings.HasSuffix(tok, m) && len(m) < len(tok) {
			best = m
		}
	}
	return best
}

func replaceToken(tokens []string, i int, repl string) string {
	parts := make([]string, len(tokens))
	copy(parts, tokens)
	parts[i] = repl
	return strings.Join(parts, " ")
}

// recombinations splits the query at each boundary where one domain noun is
// immediately followed by another, using a space and a "+", and adds known
// compounds whose parts both occur.
func recombinations(query string) []string {
	var out []string
	for _, cut := range nounBoundaries(query) {
		if len(out) >= maxRecombinations {
			break
		}
		out = append(out, query[:cut]+" "+query[cut:], query[:cut]+"+"+query[cut:])
	}
	for _, c := range compounds {
		if strings.Contains(query, c.a) && strings.Contains(query, c.b) {
			out = append(out, c.a+" "+c.b, c.a+"+"+c.b, c.compound)
		}
	}
	return out
}

// nounBoundaries returns byte offsets where a noun ends and another noun
// starts right there, in ascending order.
func nounBoundaries(query string) []int {
	ends := make(map[int]bool)
	starts := make(map[int]bool)
	for _, n := range nouns {
		for off := 0; ; {
			i := strings.Index(query[off:], n)
			if i < 0 {
				break
			}
			pos := off + i
			starts[pos] = true
			ends[pos+len(n)] = true
			off = pos + len(n)
		}
	}
	var cuts []int
	for pos := range ends {
		if starts[pos] && pos > 0 && pos < len(query) {
			cuts = append(cuts, pos)
		}
	}
	sort.Ints(cuts)
	return cuts
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
