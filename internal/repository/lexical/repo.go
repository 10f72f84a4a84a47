// Package lexical scores corpus passages by term containment. The corpus
// store ranks candidates with the same rule so a scan cap keeps the best
// ones; the scores reported here are authoritative.
package lexical

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/policyrag/internal/db"
	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
)

// Scoring weights.
const (
	exactMatchScore   = 1.0
	partialMatchScore = 0.5
	minTermRunes      = 2
	contactMatchScore = 0.5
)

// ContactKeywords mark passages carrying phone numbers or service-desk info.
var ContactKeywords = []string{"연락처", "전화번호", "고객센터", "상담", "문의"}

// corpus is the consumer interface for passage lookups (ISP).
type corpus interface {
	FindContaining(ctx context.Context, terms []db.Term, company string, limit int) ([]db.Passage, error)
	ListByCompany(ctx context.Context, company string, limit int) ([]db.Passage, error)
}

// Repo runs keyword and company-specific search over the corpus.
type Repo struct {
	corpus    corpus
	scanLimit int
}

// New creates a lexical repository. scanLimit bounds how many of the
// best-ranked candidates are scored per query (0 means unbounded).
func New(c corpus, scanLimit int) *Repo {
	return &Repo{corpus: c, scanLimit: scanLimit}
}

// Search scores passages against terms: +1.0 for each term contained in the
// text, otherwise +0.5 for each of its space-separated parts that is.
// Terms and parts shorter than two runes are ignored. Passages scoring 0 are
// dropped; the rest are returned best first (stable), at most limit.
func (r *Repo) Search(ctx context.Context, terms []string, company string, limit int) ([]evidence.Chunk, error) {
	terms = usableTerms(terms)
	if len(terms) == 0 {
		return nil, nil
	}

	passages, err := r.corpus.FindContaining(ctx, queryTerms(terms), company, r.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("find containing: %w", err)
	}

	chunks := make([]evidence.Chunk, 0, len(passages))
	for _, p := range passages {
		score, matched := Score(p.Text, terms)
		if score <= 0 {
			continue
		}
		c := fromPassage(p, evidence.OriginLexical, score)
		c.MatchedTerms = matched
		chunks = append(chunks, c)
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].RawScore > chunks[j].RawScore })
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

// CompanySearch returns up to limit passages of company that mention contact
// keywords, scored 0.5 per keyword present.
func (r *Repo) CompanySearch(ctx context.Context, company string, limit int) ([]evidence.Chunk, error) {
	if company == "" {
		return nil, nil
	}
	passages, err := r.corpus.ListByCompany(ctx, company, limit)
	if err != nil {
		return nil, fmt.Errorf("list by company %s: %w", company, err)
	}

	var chunks []evidence.Chunk
	for _, p := range passages {
		lower := strings.ToLower(p.Text)
		var matched []string
		for _, kw := range ContactKeywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		c := fromPassage(p, evidence.OriginCompany, float64(len(matched))*contactMatchScore)
		c.MatchedTerms = matched
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// Score returns the lexical score of text for terms and the terms (or term
// parts) that matched.
func Score(text string, terms []string) (float64, []string) {
	lower := strings.ToLower(text)
	var score float64
	var matched []string
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if utf8.RuneCountInString(t) < minTermRunes {
			continue
		}
		if strings.Contains(lower, t) {
			score += exactMatchScore
			matched = append(matched, term)
			continue
		}
		for _, part := range strings.Fields(t) {
			if utf8.RuneCountInString(part) >= minTermRunes && strings.Contains(lower, part) {
				score += partialMatchScore
				matched = append(matched, part)
			}
		}
	}
	return score, matched
}

func usableTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if utf8.RuneCountInString(strings.TrimSpace(t)) >= minTermRunes {
			out = append(out, t)
		}
	}
	return out
}

// queryTerms mirrors Score for the corpus: each term lowercased with its
// parts of at least two runes.
func queryTerms(terms []string) []db.Term {
	out := make([]db.Term, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		var parts []string
		for _, part := range strings.Fields(t) {
			if utf8.RuneCountInString(part) >= minTermRunes {
				parts = append(parts, part)
			}
		}
		out = append(out, db.Term{Text: t, Parts: parts})
	}
	return out
}

func fromPassage(p db.Passage, origin evidence.Origin, score float64) evidence.Chunk {
	return evidence.Chunk{
		ID:   p.ID,
		Text: p.Text,
		Source: evidence.Source{
			Document:   p.Document,
			File:       p.File,
			Company:    p.Company,
			Page:       p.Page,
			ChunkIndex: p.ChunkIndex,
		},
		Origin:   origin,
		RawScore: score,
	}
}
