// Package vector adapts the Redis FT vector index to the pipeline's
// nearest-neighbor contract.
package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/policyrag/internal/db"
	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/filter"
)

// Hash fields of an indexed passage.
const (
	FieldText       = "text"
	FieldDocument   = "document"
	FieldFile       = "file"
	FieldCompany    = "company"
	FieldPage       = "page"
	FieldChunkIndex = "chunk_index"
)

var returnFields = []string{
	FieldText, FieldDocument, FieldFile, FieldCompany, FieldPage, FieldChunkIndex, "__vector_score",
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo queries the passage vector index.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a vector repository over indexName; keyPrefix is stripped from
// hash keys to recover passage ids.
func New(s store, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, keyPrefix: keyPrefix}
}

// Query returns up to topK nearest passages as vector-origin chunks with
// RawScore set to the cosine similarity, best first. Failures are
// *domain.ExternalServiceError.
func (r *Repo) Query(
	ctx context.Context, vector []float32, topK int, filters filter.Expression,
) ([]evidence.Chunk, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, domain.NewExternalServiceError(domain.ServiceVectorIndex, "query",
			fmt.Errorf("search knn %s: %w", r.indexName, err))
	}
	return r.parseResults(sr), nil
}

func (r *Repo) parseResults(sr *db.SearchResult) []evidence.Chunk {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	chunks := make([]evidence.Chunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunks = append(chunks, evidence.Chunk{
			ID:       strings.TrimPrefix(entry.Key, r.keyPrefix),
			Text:     entry.Fields[FieldText],
			Source:   parseSource(entry.Fields),
			Origin:   evidence.OriginVector,
			RawScore: entry.Score,
		})
	}
	return chunks
}

func parseSource(fields map[string]string) evidence.Source {
	return evidence.Source{
		Document:   fields[FieldDocument],
		File:       fields[FieldFile],
		Company:    fields[FieldCompany],
		Page:       atoi(fields[FieldPage]),
		ChunkIndex: atoi(fields[FieldChunkIndex]),
	}
}

// atoi tolerates missing or float-formatted numeric fields.
func atoi(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
