// Package query holds the validated, immutable pipeline query.
package query

import (
	"fmt"
	"unicode/utf8"

	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/filter"
	"github.com/kailas-cloud/policyrag/internal/domain/text"
)

// Query parameter limits.
const (
	MaxQueryLength    = 1000
	DefaultTopK       = 10
	MaxTopK           = 50
	DefaultCandidateK = 20
	MaxCandidateK     = 200
)

// Query is an immutable, normalized user question.
type Query struct {
	raw        string
	normalized string
	scope      string
	topK       int
	candidateK int
}

// New normalizes raw and validates the sizing parameters.
// Zero topK/candidateK select the defaults; candidateK is raised to at least topK.
func New(raw, scope string, topK, candidateK int) (Query, error) {
	normalized := text.Normalize(raw)
	if normalized == "" {
		return Query{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(normalized) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if topK < 0 || candidateK < 0 {
		return Query{}, fmt.Errorf("%w: top_k and candidate_k must not be negative", domain.ErrInvalidQuery)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	topK = min(topK, MaxTopK)
	if candidateK == 0 {
		candidateK = DefaultCandidateK
	}
	candidateK = min(max(candidateK, topK), MaxCandidateK)

	return Query{
		raw:        raw,
		normalized: normalized,
		scope:      text.Normalize(scope),
		topK:       topK,
		candidateK: candidateK,
	}, nil
}

// Raw returns the text as received.
func (q Query) Raw() string { return q.raw }

// Normalized returns the canonical text used for retrieval and cache keys.
func (q Query) Normalized() string { return q.normalized }

// Scope returns the optional company scope ("" when unscoped).
func (q Query) Scope() string { return q.scope }

// TopK returns the number of results requested.
func (q Query) TopK() int { return q.topK }

// CandidateK returns the candidate pool size fetched before ranking and dedup.
func (q Query) CandidateK() int { return q.candidateK }

// Filter returns the vector pre-filter derived from the scope.
func (q Query) Filter() filter.Expression { return filter.Company(q.scope) }
