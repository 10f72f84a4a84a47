package app

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/config"
	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
	healthuc "github.com/kailas-cloud/policyrag/internal/usecase/health"
	"github.com/kailas-cloud/policyrag/internal/usecase/retrieval"
)

func lexicalOnlyConfig(t *testing.T) config.Config {
	t.Helper()
	off := false
	cfg := config.Config{
		HTTP:      config.HTTPConfig{Port: 8080},
		Database:  config.DatabaseConfig{Driver: config.DriverMemory},
		Corpus:    config.CorpusConfig{Path: filepath.Join(t.TempDir(), "corpus.db")},
		Embedding: config.EmbeddingConfig{Enabled: &off},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestBuild_LexicalOnly(t *testing.T) {
	a, err := Build(context.Background(), lexicalOnlyConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()

	report := a.Health.Check(context.Background())
	if report.Status != healthuc.Healthy {
		t.Errorf("expected healthy, got %+v", report)
	}
	if _, ok := report.Checks[healthuc.CheckEmbedding]; ok {
		t.Error("embedding check must be absent when embeddings are disabled")
	}

	// Empty corpus: no evidence, but no error either.
	ans, err := a.Pipeline.Answer(context.Background(), "음주운전 사고부담금", "")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ans.HasEvidence() {
		t.Errorf("expected no evidence from an empty corpus, got %+v", ans)
	}

	stats, err := a.Cache.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("no-evidence answers must not be cached, got %d keys", stats.Total)
	}
}

func TestRankConfig(t *testing.T) {
	cfg := config.Config{}
	cfg.Retrieval.Multipliers = map[string]float64{"hybrid": 1.5}
	cfg.ApplyDefaults()

	rc := RankConfig(cfg.Retrieval)
	if rc.VectorWeight != 0.6 || rc.LexicalWeight != 0.4 || rc.MinConfidence != 0.5 {
		t.Errorf("unexpected rank config: %+v", rc)
	}
	if rc.Multipliers[evidence.OriginHybrid] != 1.5 {
		t.Errorf("hybrid multiplier override lost: %v", rc.Multipliers)
	}
	if rc.Multipliers[evidence.OriginLexical] != 0.8 {
		t.Errorf("lexical multiplier default lost: %v", rc.Multipliers)
	}
	if err := rc.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestRetrievalConfig(t *testing.T) {
	cfg := config.Config{}
	cfg.ApplyDefaults()

	got := RetrievalConfig(cfg)
	want := retrieval.DefaultConfig()
	if got != want {
		t.Errorf("defaults diverge:\n got  %+v\n want %+v", got, want)
	}
}
