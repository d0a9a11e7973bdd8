package writeback

import (
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 16

// keySet is a set of setting keys with an optional payload per key.
// Keys are spread over independently locked shards so concurrent writers rarely contend.
type keySet[V any] struct {
	shards [shardCount]keyShard[V]
}

type keyShard[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

func newKeySet[V any]() *keySet[V] {
	s := &keySet[V]{}
	for i := range s.shards {
		s.shards[i].items = make(map[string]V)
	}
	return s
}

func (s *keySet[V]) shard(key string) *keyShard[V] {
	return &s.shards[xxhash.Sum64String(key)%shardCount]
}

func (s *keySet[V]) Put(key string, value V) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.items[key] = value
}

func (s *keySet[V]) Get(key string) (V, bool) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, ok := sh.items[key]
	return v, ok
}

func (s *keySet[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *keySet[V]) Delete(key string) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.items, key)
}

// Keys returns a sorted snapshot of the keys.
func (s *keySet[V]) Keys() []string {
	var keys []string
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k := range sh.items {
			keys = append(keys, k)
		}
		sh.mu.Unlock()
	}
	slices.Sort(keys)
	return keys
}

func (s *keySet[V]) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.items)
		sh.mu.Unlock()
	}
	return n
}

func (s *keySet[V]) Clear() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		clear(sh.items)
		sh.mu.Unlock()
	}
}
