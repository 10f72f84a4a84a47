// Package answercache is the read-through/write-through answer cache keyed on
// the normalized query and scope, with per-intent TTL classes.
package answercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/db"
	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/answer"
)

// store is the consumer interface for the answer cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Metadata is the serializable part of an answer besides its text.
type Metadata struct {
	References []answer.Reference `json:"references"`
	Mode       answer.Mode        `json:"synthesis_mode"`
	Topic      string             `json:"topic,omitempty"`
}

// Entry is one cached answer. Entries are never mutated after Put.
type Entry struct {
	Answer    string    `json:"answer"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
	Class     Class     `json:"class"`
}

// ToAnswer rebuilds the answer served from cache.
func (e Entry) ToAnswer() answer.Answer {
	refs := e.Metadata.References
	if refs == nil {
		refs = []answer.Reference{}
	}
	return answer.Answer{
		Text:       e.Answer,
		References: refs,
		Mode:       e.Metadata.Mode,
		Topic:      e.Metadata.Topic,
		Cached:     true,
		CreatedAt:  e.CreatedAt,
	}
}

// Stats counts live keys per TTL class.
type Stats struct {
	Total   int           `json:"total_keys"`
	ByClass map[Class]int `json:"by_class"`
}

// Cache stores answers in a KV store.
type Cache struct {
	store      store
	prefix     string
	ttls       TTLs
	now        func() time.Time
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for creation stamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an answer cache under key prefix (e.g. "policyrag:answer:").
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"malformed"), passed explicitly.
func New(
	s store, prefix string, ttls TTLs,
	cacheTotal *prometheus.CounterVec, logger *zap.Logger, opts ...Option,
) *Cache {
	c := &Cache{
		store:      s,
		prefix:     prefix,
		ttls:       ttls,
		now:        time.Now,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the store key for a normalized query and scope.
func (c *Cache) Key(normalized, scope string) string {
	h := sha256.Sum256([]byte(normalized + "\x00" + scope))
	return c.prefix + string(Classify(normalized)) + ":" + hex.EncodeToString(h[:])
}

// Get returns the live entry for the query. Missing, expired and malformed
// entries are all misses; store failures are logged and treated as misses.
func (c *Cache) Get(ctx context.Context, normalized, scope string) (Entry, bool) {
	key := c.Key(normalized, scope)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached answer", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return Entry{}, false
	}

	entry, err := decode(data)
	if err != nil {
		c.logger.Warn("Ignoring malformed cache entry", zap.String("key", key), zap.Error(err))
		c.inc("malformed")
		return Entry{}, false
	}

	if !c.now().Before(entry.CreatedAt.Add(c.ttls.For(entry.Class))) {
		c.inc("miss")
		return Entry{}, false
	}

	c.inc("hit")
	return entry, true
}

// Lookup is Get returning the answer as served to callers.
func (c *Cache) Lookup(ctx context.Context, normalized, scope string) (answer.Answer, bool) {
	e, ok := c.Get(ctx, normalized, scope)
	if !ok {
		return answer.Answer{}, false
	}
	return e.ToAnswer(), true
}

// Put stores an answer, overwriting any previous entry for the key.
func (c *Cache) Put(ctx context.Context, normalized, scope string, a answer.Answer) error {
	class := Classify(normalized)
	entry := Entry{
		Answer: a.Text,
		Metadata: Metadata{
			References: a.References,
			Mode:       a.Mode,
			Topic:      a.Topic,
		},
		CreatedAt: c.now().UTC(),
		Class:     class,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	key := c.Key(normalized, scope)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttls.For(class)); err != nil {
		return fmt.Errorf("put cached answer: %w", err)
	}
	return nil
}

// Delete drops the entry for one query.
func (c *Cache) Delete(ctx context.Context, normalized, scope string) error {
	if err := c.store.Del(ctx, c.Key(normalized, scope)); err != nil {
		return fmt.Errorf("delete cached answer: %w", err)
	}
	return nil
}

// Stats counts cached answers per TTL class.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByClass: make(map[Class]int, len(Classes))}
	for _, class := range Classes {
		keys, err := c.store.Scan(ctx, c.prefix+string(class)+":*")
		if err != nil {
			return Stats{}, fmt.Errorf("scan %s: %w", class, err)
		}
		st.ByClass[class] = len(keys)
		st.Total += len(keys)
	}
	return st, nil
}

// Clear removes every cached answer and returns how many keys were deleted.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.store.Scan(ctx, c.prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan answers: %w", err)
	}
	deleted := 0
	for _, k := range keys {
		if err := c.store.Del(ctx, k); err != nil {
			return deleted, fmt.Errorf("clear answers: %w", err)
		}
		deleted++
	}
	c.logger.Info("Answer cache cleared", zap.Int("deleted", deleted))
	return deleted, nil
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func decode(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", domain.ErrMalformedCacheEntry, err)
	}
	if e.Answer == "" || e.CreatedAt.IsZero() {
		return Entry{}, fmt.Errorf("%w: missing answer or created_at", domain.ErrMalformedCacheEntry)
	}
	switch e.Class {
	case ClassContact, ClassFrequent, ClassDefault:
	default:
		return Entry{}, fmt.Errorf("%w: unknown class %q", domain.ErrMalformedCacheEntry, e.Class)
	}
	return e, nil
}
