// Package config loads the service configuration from config/<env>.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/policyrag/internal/domain"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds the policyrag configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Vector    VectorConfig    `yaml:"vector"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the KV/vector store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	MemorySize       int      `yaml:"memory_size"` // LRU capacity for the memory driver
}

// CorpusConfig points at the passage corpus used by lexical search.
type CorpusConfig struct {
	Path      string `yaml:"path"`
	ScanLimit int    `yaml:"scan_limit"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Enabled          *bool  `yaml:"enabled"` // default true; false runs lexical-only
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheTTLSec      int    `yaml:"cache_ttl_sec"`
}

// LLMConfig holds the optional answer refinement settings.
type LLMConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxTokens  int    `yaml:"max_tokens"`
	JSONMode   bool   `yaml:"json_mode"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	IndexName           string  `yaml:"index_name"`
	KeyPrefix           string  `yaml:"key_prefix"`
	TimeoutMs           int     `yaml:"timeout_ms"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// RetrievalConfig holds ranking, dedup and context knobs.
type RetrievalConfig struct {
	VectorWeight   float64            `yaml:"vector_weight"`
	LexicalWeight  float64            `yaml:"lexical_weight"`
	Multipliers    map[string]float64 `yaml:"multipliers"`
	KeywordBonus   float64            `yaml:"keyword_bonus"`
	KeywordCap     float64            `yaml:"keyword_bonus_cap"`
	MinConfidence  float64            `yaml:"min_confidence"`
	TopK           int                `yaml:"top_k"`
	CandidateK     int                `yaml:"candidate_k"`
	MaxTerms       int                `yaml:"max_terms"`
	FuzzyThreshold float64            `yaml:"fuzzy_threshold"`
	FuzzyWindow    int                `yaml:"fuzzy_window"`
	MinRatio       float64            `yaml:"min_ratio"`
	MinCount       int                `yaml:"min_count"`
	ContextChars   int                `yaml:"context_max_chars"`
	ChunkCap       int                `yaml:"chunk_cap"`
	MaxReferences  int                `yaml:"max_references"`
	CompanyLimit   int                `yaml:"company_limit"`
}

// CacheConfig holds answer cache TTLs per query class.
type CacheConfig struct {
	ContactTTLSec  int `yaml:"contact_ttl_sec"`
	FrequentTTLSec int `yaml:"frequent_ttl_sec"`
	DefaultTTLSec  int `yaml:"default_ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// EmbeddingEnabled reports whether the vector path is configured.
func (c *Config) EmbeddingEnabled() bool {
	return c.Embedding.Enabled == nil || *c.Embedding.Enabled
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "policyrag:"
	}
	if c.Database.MemorySize <= 0 {
		c.Database.MemorySize = 10000
	}

	if c.Corpus.Path == "" {
		c.Corpus.Path = "data/corpus.db"
	}
	if c.Corpus.ScanLimit <= 0 {
		c.Corpus.ScanLimit = 500
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 7 * 24 * 3600
	}

	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 8
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 800
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = c.Embedding.APIKey
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = c.Embedding.BaseURL
	}

	if c.Vector.IndexName == "" {
		c.Vector.IndexName = "policy_passages"
	}
	if c.Vector.KeyPrefix == "" {
		c.Vector.KeyPrefix = "passage:"
	}
	if c.Vector.TimeoutMs <= 0 {
		c.Vector.TimeoutMs = 3000
	}
	if c.Vector.SimilarityThreshold <= 0 {
		c.Vector.SimilarityThreshold = 0.7
	}

	c.Retrieval.applyDefaults()

	if c.Cache.ContactTTLSec <= 0 {
		c.Cache.ContactTTLSec = 24 * 3600
	}
	if c.Cache.FrequentTTLSec <= 0 {
		c.Cache.FrequentTTLSec = 2 * 3600
	}
	if c.Cache.DefaultTTLSec <= 0 {
		c.Cache.DefaultTTLSec = 3600
	}
}

func (r *RetrievalConfig) applyDefaults() {
	setFloat(&r.VectorWeight, 0.6)
	setFloat(&r.LexicalWeight, 0.4)
	setFloat(&r.KeywordBonus, 0.1)
	setFloat(&r.KeywordCap, 0.3)
	setFloat(&r.MinConfidence, 0.5)
	setFloat(&r.FuzzyThreshold, 0.965)
	setFloat(&r.MinRatio, 0.3)
	setInt(&r.TopK, 10)
	setInt(&r.CandidateK, 20)
	setInt(&r.MaxTerms, 8)
	setInt(&r.FuzzyWindow, 8)
	setInt(&r.MinCount, 3)
	setInt(&r.ContextChars, 3000)
	setInt(&r.ChunkCap, 400)
	setInt(&r.MaxReferences, 5)
	setInt(&r.CompanyLimit, 20)
}

func setFloat(p *float64, def float64) {
	if *p <= 0 {
		*p = def
	}
}

func setInt(p *int, def int) {
	if *p <= 0 {
		*p = def
	}
}

// Validate checks the configuration for correctness. Failures wrap domain.ErrConfiguration.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return domain.ConfigError("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return domain.ConfigError("database.addrs is required for driver %q", DriverRedis)
		}
	case DriverMemory:
		if c.EmbeddingEnabled() {
			return domain.ConfigError("database.driver %q has no vector index; set embedding.enabled: false", DriverMemory)
		}
	default:
		return domain.ConfigError("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}

	if c.EmbeddingEnabled() {
		if c.Embedding.APIKey == "" {
			return domain.ConfigError("embedding.api_key is required")
		}
		if c.Embedding.Model == "" {
			return domain.ConfigError("embedding.model is required")
		}
	}

	if c.LLM.Enabled {
		if c.LLM.Model == "" {
			return domain.ConfigError("llm.model is required when llm.enabled is true")
		}
		if c.LLM.APIKey == "" {
			return domain.ConfigError("llm.api_key is required when llm.enabled is true")
		}
	}

	if c.Vector.SimilarityThreshold > 1 {
		return domain.ConfigError("vector.similarity_threshold must be in (0,1], got %g", c.Vector.SimilarityThreshold)
	}
	if c.Retrieval.MinConfidence > 1 {
		return domain.ConfigError("retrieval.min_confidence must be in (0,1], got %g", c.Retrieval.MinConfidence)
	}
	if c.Retrieval.MinRatio > 1 {
		return domain.ConfigError("retrieval.min_ratio must be in (0,1], got %g", c.Retrieval.MinRatio)
	}
	if c.Retrieval.FuzzyThreshold > 1 {
		return domain.ConfigError("retrieval.fuzzy_threshold must be in (0,1], got %g", c.Retrieval.FuzzyThreshold)
	}
	for origin := range c.Retrieval.Multipliers {
		switch origin {
		case "vector", "lexical", "hybrid", "company_specific":
		default:
			return domain.ConfigError("retrieval.multipliers: unknown origin %q", origin)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
