package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/policyrag/internal/domain"
)

const minimalYAML = `
http:
  port: 8080
database:
  driver: redis
  addrs: ["localhost:6379"]
embedding:
  api_key: ${POLICYRAG_TEST_KEY}
  model: ${POLICYRAG_TEST_MODEL:-intfloat/multilingual-e5-large}
`

func TestParse_ExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("POLICYRAG_TEST_KEY", "secret")

	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.APIKey != "secret" {
		t.Errorf("expected expanded api key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Embedding.Model != "intfloat/multilingual-e5-large" {
		t.Errorf("expected default model, got %q", cfg.Embedding.Model)
	}
	if cfg.Retrieval.VectorWeight != 0.6 || cfg.Retrieval.LexicalWeight != 0.4 {
		t.Errorf("unexpected weights: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.TopK != 10 || cfg.Retrieval.CandidateK != 20 || cfg.Retrieval.MaxTerms != 8 {
		t.Errorf("unexpected limits: %+v", cfg.Retrieval)
	}
	if cfg.Vector.SimilarityThreshold != 0.7 || cfg.Vector.TimeoutMs != 3000 {
		t.Errorf("unexpected vector defaults: %+v", cfg.Vector)
	}
	if cfg.Cache.ContactTTLSec != 86400 || cfg.Cache.FrequentTTLSec != 7200 || cfg.Cache.DefaultTTLSec != 3600 {
		t.Errorf("unexpected cache TTLs: %+v", cfg.Cache)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Errorf("expected llm key to inherit embedding key, got %q", cfg.LLM.APIKey)
	}
	if !cfg.EmbeddingEnabled() {
		t.Error("embedding should be enabled by default")
	}
}

func TestValidate(t *testing.T) {
	off := false
	base := func() Config {
		c := Config{
			HTTP:      HTTPConfig{Port: 8080},
			Database:  DatabaseConfig{Driver: DriverRedis, Addrs: []string{"localhost:6379"}},
			Embedding: EmbeddingConfig{APIKey: "k", Model: "m"},
		}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"redis without addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "valkey" }, "database.driver"},
		{"memory with embeddings", func(c *Config) { c.Database.Driver = DriverMemory }, "no vector index"},
		{"memory lexical-only", func(c *Config) {
			c.Database.Driver = DriverMemory
			c.Embedding.Enabled = &off
			c.Embedding.APIKey = ""
		}, ""},
		{"missing api key", func(c *Config) { c.Embedding.APIKey = "" }, "embedding.api_key"},
		{"llm without model", func(c *Config) { c.LLM.Enabled = true }, "llm.model"},
		{"threshold above one", func(c *Config) { c.Vector.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"unknown multiplier", func(c *Config) { c.Retrieval.Multipliers = map[string]float64{"bm25": 1} }, "unknown origin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("POLICYRAG_A", "x")
	got := string(expandEnvVars([]byte("${POLICYRAG_A}-${POLICYRAG_UNSET:-d}-${POLICYRAG_UNSET}")))
	if got != "x-d-" {
		t.Errorf("expandEnvVars = %q", got)
	}
}
