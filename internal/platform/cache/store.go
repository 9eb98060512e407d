package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// purgeEvery is the number of writes between sweeps of expired entries.
const purgeEvery = 256

type item struct {
	value    any
	deadline time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.deadline.IsZero() && !now.Before(it.deadline)
}

// Store is an in-process TTL cache shared by the read-through repository
// decorators. Concurrent loads of the same key run the loader once.
// A ttl of zero keeps entries until they are deleted.
type Store struct {
	ttl   time.Duration
	clock clockwork.Clock
	group singleflight.Group

	mu     sync.RWMutex
	items  map[string]item
	writes int
}

func NewStore(ttl time.Duration, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Store{ttl: ttl, clock: clock, items: map[string]item{}}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	now := s.clock.Now()

	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	switch {
	case !ok:
		return nil, false
	case it.expired(now):
		s.mu.Lock()
		if cur, still := s.items[key]; still && cur.expired(now) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}
	now := s.clock.Now()
	it := item{value: value}
	if s.ttl > 0 {
		it.deadline = now.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = it
	s.writes++
	if s.ttl > 0 && s.writes%purgeEvery == 0 {
		s.purgeLocked(now)
	}
}

func (s *Store) Delete(_ context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	s.mu.Lock()
	for _, key := range keys {
		delete(s.items, key)
	}
	s.mu.Unlock()
}

// DeletePrefix drops every key under prefix, e.g. "player:" after a bulk write.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}
	s.mu.Lock()
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
	s.mu.Unlock()
}

// Purge removes expired entries and reports how many were dropped.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeLocked(s.clock.Now())
}

func (s *Store) purgeLocked(now time.Time) int {
	dropped := 0
	for key, it := range s.items {
		if it.expired(now) {
			delete(s.items, key)
			dropped++
		}
	}
	return dropped
}

// Len counts stored entries, expired ones included until they are purged.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// GetOrLoad returns the cached value for key or stores the loader's result.
// Loader errors are returned and never cached. An empty key bypasses the cache.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("cache: nil loader for key %q", key)
	}
	if key == "" {
		return loader(ctx)
	}
	if v, ok := s.Get(ctx, key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.Get(ctx, key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, v)
		return v, nil
	})
	return v, err
}

// Load is GetOrLoad with the value asserted to T.
func Load[T any](ctx context.Context, s *Store, key string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := s.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return typed, nil
}
