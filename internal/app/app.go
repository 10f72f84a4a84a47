// Package app is the composition root shared by the server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/config"
	"github.com/kailas-cloud/policyrag/internal/db"
	"github.com/kailas-cloud/policyrag/internal/db/memory"
	dbRedis "github.com/kailas-cloud/policyrag/internal/db/redis"
	"github.com/kailas-cloud/policyrag/internal/db/sqlite"
	"github.com/kailas-cloud/policyrag/internal/domain"
	domevidence "github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/metrics"
	"github.com/kailas-cloud/policyrag/internal/repository/answercache"
	"github.com/kailas-cloud/policyrag/internal/repository/embcache"
	"github.com/kailas-cloud/policyrag/internal/repository/lexical"
	"github.com/kailas-cloud/policyrag/internal/repository/vector"
	openaiTransport "github.com/kailas-cloud/policyrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/policyrag/internal/usecase/embedding"
	"github.com/kailas-cloud/policyrag/internal/usecase/evidence"
	healthuc "github.com/kailas-cloud/policyrag/internal/usecase/health"
	"github.com/kailas-cloud/policyrag/internal/usecase/keyword"
	"github.com/kailas-cloud/policyrag/internal/usecase/rank"
	"github.com/kailas-cloud/policyrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/policyrag/internal/usecase/synth"
)

// kvStore is what the caches need from the database driver.
type kvStore interface {
	db.Pinger
	db.KVStore
}

// App holds the wired pipeline and its collaborators.
type App struct {
	Pipeline *retrieval.Service
	Cache    *answercache.Cache
	Health   *healthuc.Service

	closers []func()
}

// Close releases the corpus and the store connection.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Build opens the stores and wires the pipeline from cfg.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	kv, searcher, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	corpus, err := sqlite.Open(ctx, cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	a.closers = append(a.closers, func() { _ = corpus.Close() })

	var (
		embedder    domain.Embedder
		vectorIndex retrieval.VectorIndex
		embHealth   healthuc.EmbeddingChecker
	)
	if cfg.EmbeddingEnabled() {
		inst := buildEmbedder(cfg.Embedding, kv, cfg.Database.KeyPrefix, logger)
		embedder = inst
		embHealth = inst
		vectorIndex = vector.New(searcher, cfg.Vector.IndexName, cfg.Vector.KeyPrefix)
		logger.Info("Vector retrieval enabled",
			zap.String("model", cfg.Embedding.Model),
			zap.String("index", cfg.Vector.IndexName),
		)
	} else {
		logger.Info("Embedding disabled, running lexical-only retrieval")
	}

	var completer domain.Completer
	if cfg.LLM.Enabled {
		completer = openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			Config: openaiTransport.Config{
				APIKey:  cfg.LLM.APIKey,
				BaseURL: cfg.LLM.BaseURL,
				Model:   cfg.LLM.Model,
				Logger:  logger,
			},
			MaxTokens: cfg.LLM.MaxTokens,
			JSONMode:  cfg.LLM.JSONMode,
		})
	}
	synthesizer, err := synth.New(completer, synth.Options{
		LLMRefine:     cfg.LLM.Enabled,
		MaxReferences: cfg.Retrieval.MaxReferences,
		Timeout:       time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}

	rankCfg := RankConfig(cfg.Retrieval)
	if err := rankCfg.Validate(); err != nil {
		return nil, fmt.Errorf("rank config: %w", err)
	}

	a.Cache = answercache.New(kv, cfg.Database.KeyPrefix+"answer:", answercache.TTLs{
		Contact:  time.Duration(cfg.Cache.ContactTTLSec) * time.Second,
		Frequent: time.Duration(cfg.Cache.FrequentTTLSec) * time.Second,
		Default:  time.Duration(cfg.Cache.DefaultTTLSec) * time.Second,
	}, metrics.AnswerCacheTotal, logger)

	a.Pipeline, err = retrieval.New(retrieval.Deps{
		Embedder: embedder,
		Vector:   vectorIndex,
		Lexical:  lexical.New(corpus, cfg.Corpus.ScanLimit),
		Expander: keyword.NewExpander(),
		Ranker:   rank.New(rankCfg),
		Builder:  evidence.NewBuilder(cfg.Retrieval.ChunkCap),
		Synth:    synthesizer,
		Cache:    a.Cache,
		Metrics: retrieval.Metrics{
			Fallbacks:        metrics.VectorFallbacksTotal,
			Synthesis:        metrics.SynthesisTotal,
			ExternalDuration: metrics.ExternalCallDuration,
			PoolSize:         metrics.CandidatePoolSize,
		},
	}, RetrievalConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	a.Health = healthuc.New(corpus, kv, embHealth)
	ok = true
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config) (kvStore, db.Searcher, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			return nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		return store, store, nil
	case config.DriverMemory:
		store, err := memory.NewStore(cfg.Database.MemorySize)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil, nil
	default:
		return nil, nil, domain.ConfigError("unknown database driver %q", cfg.Database.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction -> Instrumented.
func buildEmbedder(
	cfg config.EmbeddingConfig, kv kvStore, keyPrefix string, logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = embcache.New(
		base, kv, keyPrefix+"emb:"+cfg.Model+":",
		time.Duration(cfg.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
		embcache.WithDimensions(cfg.Dimensions),
	)

	// Instruction prefix wraps the cache so cached keys include it.
	if cfg.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, metrics.ExternalCallDuration, logger,
	)
}

// RankConfig maps the retrieval section onto the ranker settings.
func RankConfig(r config.RetrievalConfig) rank.Config {
	rc := rank.DefaultConfig()
	rc.VectorWeight = r.VectorWeight
	rc.LexicalWeight = r.LexicalWeight
	rc.BonusPerMatch = r.KeywordBonus
	rc.BonusCap = r.KeywordCap
	rc.MinConfidence = r.MinConfidence
	for origin, m := range r.Multipliers {
		rc.Multipliers[domevidence.Origin(origin)] = m
	}
	return rc
}

// RetrievalConfig maps the configuration onto the pipeline settings.
func RetrievalConfig(cfg config.Config) retrieval.Config {
	r := cfg.Retrieval
	return retrieval.Config{
		TopK:                r.TopK,
		CandidateK:          r.CandidateK,
		MaxTerms:            r.MaxTerms,
		SimilarityThreshold: cfg.Vector.SimilarityThreshold,
		VectorTimeout:       time.Duration(cfg.Vector.TimeoutMs) * time.Millisecond,
		FuzzyThreshold:      r.FuzzyThreshold,
		FuzzyWindow:         r.FuzzyWindow,
		MinRatio:            r.MinRatio,
		MinCount:            r.MinCount,
		ContextMaxChars:     r.ContextChars,
		CompanyLimit:        r.CompanyLimit,
	}
}
