// Package memstore implements an in-process settings backend.
package memstore

import (
	"context"
	"reflect"
	"sync"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

type setting struct {
	value        any
	defaultValue any
	typ          reflect.Type
}

// Store implements ports.Backend with maps guarded by a mutex.
// Writes are applied immediately, so Commit and Discard have nothing to do.
type Store struct {
	mu       sync.RWMutex
	settings map[string]setting
}

var _ ports.Backend = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{settings: make(map[string]setting)}
}

// Get returns the value of key as typ.
func (s *Store) Get(_ context.Context, key string, typ reflect.Type) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[key]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "setting is not registered"), "key", key)
	}
	if !domain.Compatible(st.typ, st.value, typ) {
		err := zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "incompatible setting type"), "key", key)
		return nil, zerr.With(err, "stored_type", st.typ.String())
	}
	return st.value, nil
}

// Default returns the default value registered for key.
func (s *Store) Default(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[key]
	return st.defaultValue, ok
}

// IsRegistered reports whether key exists.
func (s *Store) IsRegistered(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.settings[key]
	return ok, nil
}

// Register creates or replaces key.
func (s *Store) Register(_ context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = setting{value: initialValue, defaultValue: defaultValue, typ: typ}
	return nil
}

// Set overwrites the value of key.
func (s *Store) Set(_ context.Context, key string, value any, typ reflect.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[key]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "setting is not registered"), "key", key)
	}
	if !domain.Assignable(value, st.typ) {
		err := zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "incompatible setting type"), "key", key)
		return zerr.With(err, "requested_type", typ.String())
	}
	st.value = value
	s.settings[key] = st
	return nil
}

// Unregister removes key.
func (s *Store) Unregister(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
	return nil
}

// Len returns the number of registered settings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.settings)
}

// Commit does nothing; writes are already applied.
func (s *Store) Commit(context.Context) error { return nil }

// Discard does nothing; writes are already applied.
func (s *Store) Discard(context.Context) error { return nil }

// Concurrency allows every commit phase to run concurrently.
func (s *Store) Concurrency() domain.Concurrency {
	return domain.FullConcurrency
}
