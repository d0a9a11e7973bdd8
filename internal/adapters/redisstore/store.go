// Package redisstore implements a settings backend on Redis hashes.
package redisstore

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	fieldType    = "type"
	fieldValue   = "value"
	fieldDefault = "default"
)

// staged is a write queued in the pipeline. A nil entry marks a deletion.
type staged struct {
	typeName string
	value    []byte
}

// Store implements ports.Backend with one hash per setting.
// Writes are queued in a MULTI/EXEC pipeline and sent on Commit; reads see queued writes.
type Store struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	pipe   redis.Pipeliner
	staged map[string]*staged
}

var _ ports.Backend = (*Store)(nil)

// NewStore creates a Store on client. Keys are namespaced by prefix, "knob:" when empty.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = domain.DefaultRedisPrefix
	}
	return &Store{
		client: client,
		prefix: prefix,
		pipe:   client.TxPipeline(),
		staged: make(map[string]*staged),
	}
}

// NewStoreFromURL parses a redis:// URL and checks the connection.
func NewStoreFromURL(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrBackendOpenFailed, err.Error())
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, zerr.With(zerr.Wrap(domain.ErrBackendOpenFailed, err.Error()), "addr", opts.Addr)
	}
	return NewStore(client, prefix), nil
}

// Close closes the Redis connection. Queued writes are dropped.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipe.Discard()
	clear(s.staged)
	return s.client.Close()
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

// Get decodes the value of key into typ.
func (s *Store) Get(ctx context.Context, key string, typ reflect.Type) (any, error) {
	typeName, payload, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	target, err := domain.DecodeTarget(key, typeName, typ)
	if err != nil {
		return nil, err
	}
	value, err := domain.DecodeValue(payload, target)
	if err != nil {
		return nil, zerr.With(err, "key", key)
	}
	return value, nil
}

// load returns the type name and encoded value of key, preferring queued writes.
func (s *Store) load(ctx context.Context, key string) (string, []byte, error) {
	s.mu.Lock()
	st, pending := s.staged[key]
	s.mu.Unlock()

	if pending {
		if st == nil {
			return "", nil, notFound(key)
		}
		return st.typeName, st.value, nil
	}

	vals, err := s.client.HMGet(ctx, s.key(key), fieldType, fieldValue).Result()
	if err != nil {
		return "", nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	typeName, ok := vals[0].(string)
	if !ok {
		return "", nil, notFound(key)
	}
	payload, _ := vals[1].(string)
	return typeName, []byte(payload), nil
}

// IsRegistered reports whether the hash of key exists.
func (s *Store) IsRegistered(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	st, pending := s.staged[key]
	s.mu.Unlock()
	if pending {
		return st != nil, nil
	}

	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return n > 0, nil
}

// Register queues the creation or replacement of key.
func (s *Store) Register(ctx context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error {
	value, err := domain.EncodeValue(initialValue)
	if err != nil {
		return zerr.With(err, "key", key)
	}
	def, err := domain.EncodeValue(defaultValue)
	if err != nil {
		return zerr.With(err, "key", key)
	}
	name := domain.TypeName(typ)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipe.HSet(ctx, s.key(key), fieldType, name, fieldValue, value, fieldDefault, def)
	s.staged[key] = &staged{typeName: name, value: value}
	return nil
}

// Set queues an update of the value of key.
func (s *Store) Set(ctx context.Context, key string, value any, typ reflect.Type) error {
	payload, err := domain.EncodeValue(value)
	if err != nil {
		return zerr.With(err, "key", key)
	}

	typeName, _, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if _, err := domain.DecodeTarget(key, typeName, typ); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipe.HSet(ctx, s.key(key), fieldValue, payload)
	s.staged[key] = &staged{typeName: typeName, value: payload}
	return nil
}

// Unregister queues the deletion of key.
func (s *Store) Unregister(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipe.Del(ctx, s.key(key))
	s.staged[key] = nil
	return nil
}

// Commit executes the queued writes in one MULTI/EXEC transaction.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.staged) == 0 {
		return nil
	}
	_, err := s.pipe.Exec(ctx)
	clear(s.staged)
	if err != nil && !errors.Is(err, redis.Nil) {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Discard drops the queued writes.
func (s *Store) Discard(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipe.Discard()
	clear(s.staged)
	return nil
}

// Concurrency allows every phase to run concurrently; queueing is guarded by a mutex.
func (s *Store) Concurrency() domain.Concurrency {
	return domain.FullConcurrency
}

func notFound(key string) error {
	return zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "setting is not registered"), "key", key)
}
