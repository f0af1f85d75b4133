// Package cache holds short-lived read models keyed by string. Keys are
// namespaced with a prefix ("balances:entity:12") so that writers can drop a
// whole family of entries at once.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is a size-bounded LRU whose entries also expire after a TTL.
// Every invalidation bumps a generation counter so that values computed
// before it can be discarded instead of cached.
type Store[V any] struct {
	lru *expirable.LRU[string, V]

	mu  sync.Mutex
	gen uint64
}

// NewStore creates a store holding at most size entries for at most ttl each.
func NewStore[V any](size int, ttl time.Duration) *Store[V] {
	return &Store[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the cached value for key.
func (s *Store[V]) Get(key string) (V, bool) {
	return s.lru.Get(key)
}

// Set caches value under key.
func (s *Store[V]) Set(key string, value V) {
	s.lru.Add(key, value)
}

// Generation returns the current invalidation generation.
func (s *Store[V]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// SetIfCurrent caches value only if no invalidation happened since gen was
// read. It reports whether the value was stored.
func (s *Store[V]) SetIfCurrent(key string, value V, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.lru.Add(key, value)
	return true
}

// Len reports the number of live entries.
func (s *Store[V]) Len() int {
	return s.lru.Len()
}

// Invalidate drops every entry whose key starts with one of the prefixes.
// No prefixes purges the store.
func (s *Store[V]) Invalidate(ctx context.Context, prefixes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if len(prefixes) == 0 {
		s.lru.Purge()
		return
	}
	removed := 0
	for _, key := range s.lru.Keys() {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				if s.lru.Remove(key) {
					removed++
				}
				break
			}
		}
	}
	if removed > 0 {
		middleware.GetLoggerFromCtx(ctx).Debug("Cache entries invalidated", slog.Any("prefixes", prefixes), slog.Int("removed", removed))
	}
}

// Invalidator is anything that can drop cached entries by prefix.
type Invalidator interface {
	Invalidate(ctx context.Context, prefixes ...string)
}

// Fanout forwards invalidations to several stores.
type Fanout []Invalidator

// Invalidate implements Invalidator.
func (f Fanout) Invalidate(ctx context.Context, prefixes ...string) {
	for _, inv := range f {
		if inv != nil {
			inv.Invalidate(ctx, prefixes...)
		}
	}
}

// Key joins cache key segments with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
