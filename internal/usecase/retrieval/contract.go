package retrieval

import (
	"context"

	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/answer"
	domevidence "github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/filter"
	"github.com/kailas-cloud/policyrag/internal/usecase/evidence"
)

// Embedder vectorizes the query.
type Embedder = domain.Embedder

// VectorIndex runs KNN over passage embeddings.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, filters filter.Expression) ([]domevidence.Chunk, error)
}

// LexicalIndex scores corpus passages by term containment.
type LexicalIndex interface {
	Search(ctx context.Context, terms []string, company string, limit int) ([]domevidence.Chunk, error)
	CompanySearch(ctx context.Context, company string, limit int) ([]domevidence.Chunk, error)
}

// Expander turns a query into lexical search terms.
type Expander interface {
	Expand(query string, maxTerms int) []string
}

// Ranker fuses origin result sets.
type Ranker interface {
	Combine(vector, lexical, company []domevidence.Chunk) []domevidence.Chunk
}

// ContextBuilder assembles the evidence block.
type ContextBuilder interface {
	Build(chunks []domevidence.Chunk, maxChars int) evidence.Context
}

// Synthesizer writes the answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, ec evidence.Context) answer.Answer
}

// AnswerCache is the read-through/write-through answer store.
type AnswerCache interface {
	Lookup(ctx context.Context, normalized, scope string) (answer.Answer, bool)
	Put(ctx context.Context, normalized, scope string, a answer.Answer) error
}
