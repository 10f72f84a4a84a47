// Package memory is an in-process KV driver for the answer and embedding caches,
// used when no shared Redis cache is configured.
package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/policyrag/internal/db"
)

// Compile-time checks.
var (
	_ db.KVStore = (*Store)(nil)
	_ db.Pinger  = (*Store)(nil)
)

// DefaultSize is the number of keys kept before least-recently-used eviction.
const DefaultSize = 10000

type item struct {
	value     []byte
	expiresAt time.Time
}

// Store is a size-bounded LRU with per-key expiry. The LRU is internally
// locked, so concurrent Get/Set are safe and the last writer wins.
type Store struct {
	cache *lru.Cache[string, item]
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an in-memory store holding at most size keys.
func NewStore(size int, opts ...Option) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, item](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	s := &Store{cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Get returns the value or db.ErrKeyNotFound when absent or expired.
// Expired entries stay until a write replaces them or the LRU evicts them,
// so a read never races a concurrent SetWithTTL of the same key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	it, ok := s.cache.Get(key)
	if !ok || s.expired(it) {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// SetWithTTL stores a copy of value; ttl <= 0 means no expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := item{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, it)
	return nil
}

// Del removes a key. Missing keys are not an error.
func (s *Store) Del(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Scan returns live keys matching a glob pattern, sorted.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for _, k := range s.cache.Keys() {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		if !ok {
			continue
		}
		if it, found := s.cache.Peek(k); found && !s.expired(it) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys, expired ones included.
func (s *Store) Len() int { return s.cache.Len() }

// Close drops all keys.
func (s *Store) Close() { s.cache.Purge() }

func (s *Store) expired(it item) bool {
	return !it.expiresAt.IsZero() && !s.now().Before(it.expiresAt)
}
