package retrieval

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/db/memory"
	"github.com/kailas-cloud/policyrag/internal/domain"
	domevidence "github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/filter"
	"github.com/kailas-cloud/policyrag/internal/repository/answercache"
	"github.com/kailas-cloud/policyrag/internal/usecase/evidence"
	"github.com/kailas-cloud/policyrag/internal/usecase/keyword"
	"github.com/kailas-cloud/policyrag/internal/usecase/rank"
	"github.com/kailas-cloud/policyrag/internal/usecase/synth"
)

type mockEmbedder struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return domain.EmbeddingResult{}, ctx.Err()
		}
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 3}, nil
}

// mockVector returns errs[i] on call i while errs lasts, then results.
type mockVector struct {
	mu      sync.Mutex
	calls   int
	results []domevidence.Chunk
	errs    []error
	hook    func(ctx context.Context)
	filters []filter.Expression
}

func (m *mockVector) Query(ctx context.Context, _ []float32, _ int, f filter.Expression) ([]domevidence.Chunk, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	m.filters = append(m.filters, f)
	m.mu.Unlock()

	if m.hook != nil {
		m.hook(ctx)
	}
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return domevidence.Clone(m.results), nil
}

func (m *mockVector) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockLexical struct {
	results   []domevidence.Chunk
	company   []domevidence.Chunk
	err       error
	calls     atomic.Int32
	companies []string
	mu        sync.Mutex
}

func (m *mockLexical) Search(_ context.Context, _ []string, _ string, limit int) ([]domevidence.Chunk, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	out := domevidence.Clone(m.results)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockLexical) CompanySearch(_ context.Context, company string, _ int) ([]domevidence.Chunk, error) {
	m.mu.Lock()
	m.companies = append(m.companies, company)
	m.mu.Unlock()
	return domevidence.Clone(m.company), nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	svc   *Service
	emb   *mockEmbedder
	vec   *mockVector
	lex   LexicalIndex
	cache *answercache.Cache
	clock *testClock
}

// newHarness wires the real pure stages with fake external collaborators.
func newHarness(t *testing.T, vec *mockVector, lex LexicalIndex, mutate func(*Config)) *harness {
	t.Helper()
	clk := &testClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	store, err := memory.NewStore(128, memory.WithClock(clk.now))
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	cache := answercache.New(store, "test:answer:", answercache.DefaultTTLs, nil, zap.NewNop(), answercache.WithClock(clk.now))
	s, err := synth.New(nil, synth.Options{}, nil)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}

	cfg := DefaultConfig()
	cfg.VectorTimeout = 200 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{vec: vec, lex: lex, cache: cache, clock: clk}
	deps := Deps{
		Lexical:  lex,
		Expander: keyword.NewExpander(),
		Ranker:   rank.New(rank.DefaultConfig()),
		Builder:  evidence.NewBuilder(0),
		Synth:    s,
		Cache:    cache,
	}
	if vec != nil {
		h.emb = &mockEmbedder{}
		deps.Embedder = h.emb
		deps.Vector = vec
	}
	svc, err := New(deps, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.now = clk.now
	h.svc = svc
	return h
}

func passage(id, body, doc string, page int, score float64) domevidence.Chunk {
	return domevidence.Chunk{
		ID:       id,
		Text:     body,
		Source:   domevidence.Source{Document: doc, File: doc + ".pdf", Page: page},
		RawScore: score,
	}
}

func lexicalHits(bodies ...string) []domevidence.Chunk {
	out := make([]domevidence.Chunk, len(bodies))
	for i, body := range bodies {
		out[i] = passage(fmt.Sprintf("lex-%d", i), body, "약관", i+1, 2.0)
	}
	return out
}
