// Package retrieval runs the question-answering pipeline: normalize, expand,
// retrieve (vector and lexical in parallel), rank, dedup, build context,
// synthesize, with the answer cache wrapped around it.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/answer"
	domevidence "github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/query"
	"github.com/kailas-cloud/policyrag/internal/domain/text"
	"github.com/kailas-cloud/policyrag/internal/logger"
	"github.com/kailas-cloud/policyrag/internal/usecase/dedup"
	"github.com/kailas-cloud/policyrag/internal/usecase/keyword"
)

// Config holds the pipeline knobs that are not owned by a stage.
type Config struct {
	TopK                int
	CandidateK          int
	MaxTerms            int
	SimilarityThreshold float64
	VectorTimeout       time.Duration
	FuzzyThreshold      float64
	FuzzyWindow         int
	MinRatio            float64
	MinCount            int
	ContextMaxChars     int
	CompanyLimit        int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		TopK:                query.DefaultTopK,
		CandidateK:          query.DefaultCandidateK,
		MaxTerms:            keyword.DefaultMaxTerms,
		SimilarityThreshold: 0.7,
		VectorTimeout:       3 * time.Second,
		FuzzyThreshold:      dedup.DefaultThreshold,
		FuzzyWindow:         dedup.DefaultWindow,
		MinRatio:            dedup.DefaultMinRatio,
		MinCount:            dedup.DefaultMinCount,
		ContextMaxChars:     3000,
		CompanyLimit:        20,
	}
}

// Deps are the collaborators, built once at startup. Embedder and Vector
// are optional together: without them retrieval is lexical-only. Cache is
// optional.
type Deps struct {
	Embedder Embedder
	Vector   VectorIndex
	Lexical  LexicalIndex
	Expander Expander
	Ranker   Ranker
	Builder  ContextBuilder
	Synth    Synthesizer
	Cache    AnswerCache
	Metrics  Metrics
}

// Service is the pipeline entry point. Safe for concurrent use.
type Service struct {
	deps Deps
	cfg  Config
	now  func() time.Time
}

// New validates dependencies and creates the service.
func New(d Deps, cfg Config) (*Service, error) {
	switch {
	case d.Lexical == nil, d.Expander == nil, d.Ranker == nil, d.Builder == nil, d.Synth == nil:
		return nil, domain.ConfigError("retrieval: lexical index, expander, ranker, builder and synthesizer are required")
	case (d.Vector == nil) != (d.Embedder == nil):
		return nil, domain.ConfigError("retrieval: vector index and embedder must be configured together")
	}
	return &Service{deps: d, cfg: cfg, now: time.Now}, nil
}

// SearchRequest is the search entry point input.
type SearchRequest struct {
	Query      string
	TopK       int
	CandidateK int
	Scope      string
}

// SearchResult is the ranked, deduplicated evidence.
type SearchResult struct {
	Results []domevidence.Chunk
	// TotalCandidates counts ranked chunks before dedup.
	TotalCandidates int
	// Degraded is set when the vector path failed and results are lexical-only.
	Degraded bool
	Terms    []string
	Company  string
}

// Search returns ranked evidence for a query. Vector index failures fall
// back to lexical results; only an invalid query, a cancelled context or
// failure of every retrieval path is an error.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	q, err := query.New(req.Query, req.Scope, s.orDefault(req.TopK, s.cfg.TopK), s.orDefault(req.CandidateK, s.cfg.CandidateK))
	if err != nil {
		return SearchResult{}, err
	}
	return s.search(ctx, q)
}

// Answer answers a question. It never fails on empty input or missing
// evidence (both produce the fixed not-found answer); it returns an error
// only when ctx is done.
func (s *Service) Answer(ctx context.Context, raw, scope string) (answer.Answer, error) {
	log := logger.FromContext(ctx)

	q, err := query.New(raw, scope, s.cfg.TopK, s.cfg.CandidateK)
	if err != nil {
		log.Debug("Unanswerable query", zap.Error(err))
		return answer.NoEvidence(s.now()), nil
	}

	if s.deps.Cache != nil {
		if a, ok := s.deps.Cache.Lookup(ctx, q.Normalized(), q.Scope()); ok {
			log.Debug("Answer served from cache", zap.String("query", q.Normalized()))
			return a, nil
		}
	}

	res, err := s.search(ctx, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return answer.Answer{}, fmt.Errorf("answer: %w", ctxErr)
		}
		log.Error("Retrieval failed, answering without evidence", zap.Error(err))
		return answer.NoEvidence(s.now()), nil
	}

	ec := s.deps.Builder.Build(res.Results, s.cfg.ContextMaxChars)
	a := s.deps.Synth.Synthesize(ctx, q.Normalized(), ec)
	s.deps.Metrics.synthesis(a.Mode)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return answer.Answer{}, fmt.Errorf("answer: %w", ctxErr)
	}
	s.store(ctx, q, a, res.Degraded)
	return a, nil
}

// store writes the answer through unless it would poison the cache.
func (s *Service) store(ctx context.Context, q query.Query, a answer.Answer, degraded bool) {
	if s.deps.Cache == nil || degraded || !a.HasEvidence() {
		return
	}
	if err := s.deps.Cache.Put(ctx, q.Normalized(), q.Scope(), a); err != nil {
		logger.FromContext(ctx).Warn("Failed to cache answer", zap.Error(err))
	}
}

func (s *Service) search(ctx context.Context, q query.Query) (SearchResult, error) {
	company := q.Scope()
	if company == "" {
		company = keyword.DetectCompany(q.Normalized())
	}
	ctx, log := logger.With(ctx, zap.String("company", company), zap.Int("top_k", q.TopK()))
	terms := s.deps.Expander.Expand(q.Normalized(), s.cfg.MaxTerms)

	var (
		vec, lex, boost    []domevidence.Chunk
		vecErr, companyErr error
	)
	// Siblings are not cancelled on a lexical error: vector results can still answer.
	var g errgroup.Group
	if s.deps.Vector != nil {
		g.Go(func() error {
			vec, vecErr = s.vectorSearch(ctx, q)
			return nil
		})
	}
	g.Go(func() error {
		var err error
		lex, err = s.deps.Lexical.Search(ctx, terms, q.Scope(), q.CandidateK())
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		return nil
	})
	if company != "" {
		g.Go(func() error {
			boost, companyErr = s.deps.Lexical.CompanySearch(ctx, company, s.cfg.CompanyLimit)
			return nil
		})
	}
	lexErr := g.Wait()

	if err := ctx.Err(); err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	if companyErr != nil {
		log.Warn("Company boost unavailable", zap.String("company", company), zap.Error(companyErr))
	}

	degraded := vecErr != nil
	if degraded {
		s.deps.Metrics.fallback(vecErr)
		log.Warn("Vector search failed, using lexical results only", zap.Error(vecErr))
	}
	if lexErr != nil {
		if s.deps.Vector == nil || degraded {
			return SearchResult{}, errors.Join(lexErr, vecErr)
		}
		log.Warn("Lexical search failed, using vector results only", zap.Error(lexErr))
	}

	vec = s.screenVector(vec)
	ranked := s.deps.Ranker.Combine(vec, lex, boost)
	final := s.prune(ranked, q.TopK())

	s.deps.Metrics.pool("ranked", len(ranked))
	s.deps.Metrics.pool("final", len(final))
	log.Debug("Search finished",
		zap.Int("terms", len(terms)),
		zap.Int("vector", len(vec)),
		zap.Int("lexical", len(lex)),
		zap.Int("company", len(boost)),
		zap.Int("ranked", len(ranked)),
		zap.Int("final", len(final)),
		zap.Bool("degraded", degraded),
	)

	return SearchResult{
		Results:         final,
		TotalCandidates: len(ranked),
		Degraded:        degraded,
		Terms:           terms,
		Company:         company,
	}, nil
}

// vectorSearch embeds the query and runs KNN, each attempt under the vector
// timeout, retrying once. Only the KNN call is timed as vector_index; the
// embedder records its own latency.
func (s *Service) vectorSearch(ctx context.Context, q query.Query) ([]domevidence.Chunk, error) {
	observe := s.deps.Metrics.observer(domain.ServiceVectorIndex)
	var out []domevidence.Chunk
	err := retryOnce(ctx, s.cfg.VectorTimeout, func(ctx context.Context) error {
		emb, err := s.deps.Embedder.Embed(ctx, q.Normalized())
		if err != nil {
			return err
		}
		start := time.Now()
		out, err = s.deps.Vector.Query(ctx, emb.Embedding, q.CandidateK(), q.Filter())
		observe(callStatus(err), time.Since(start))
		return err
	})
	return out, err
}

// screenVector drops hits below the similarity threshold or that look like
// extraction noise, and cleans the text of the rest.
func (s *Service) screenVector(chunks []domevidence.Chunk) []domevidence.Chunk {
	out := make([]domevidence.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.RawScore < s.cfg.SimilarityThreshold || text.IsNoise(c.Text) {
			continue
		}
		c = c.Clone()
		c.Text = text.DisplayClean(c.Text)
		out = append(out, c)
	}
	return out
}

// prune deduplicates the ranking and backfills to the floor computed over
// the first topK candidates, then cuts to topK.
func (s *Service) prune(ranked []domevidence.Chunk, topK int) []domevidence.Chunk {
	withUIDs := dedup.AssignUIDs(ranked)
	pruned := dedup.Fuzzy(dedup.Exact(withUIDs), s.cfg.FuzzyThreshold, s.cfg.FuzzyWindow)
	s.deps.Metrics.pool("deduped", len(pruned))

	pool := withUIDs[:min(topK, len(withUIDs))]
	final := dedup.EnsureMinimum(pool, pruned, s.cfg.MinRatio, s.cfg.MinCount)
	if len(final) > topK {
		final = final[:topK]
	}
	return final
}

func (s *Service) orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
