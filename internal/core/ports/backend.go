// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"reflect"

	"go.trai.ch/knob/internal/core/domain"
)

// Backend is the authoritative store of (key, type, value) triples behind the write-back cache.
//
//go:generate go run go.uber.org/mock/mockgen -source=backend.go -destination=mocks/mock_backend.go -package=mocks
type Backend interface {
	// Get returns the value of key decoded as typ.
	// It fails with domain.ErrKeyNotFound for unknown keys and domain.ErrTypeMismatch when the
	// stored type cannot be read as typ.
	Get(ctx context.Context, key string, typ reflect.Type) (any, error)

	// IsRegistered reports whether key is known to the backend.
	IsRegistered(ctx context.Context, key string) (bool, error)

	// Register creates or replaces the setting key. It must be idempotent.
	Register(ctx context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error

	// Set overwrites the value of an existing setting.
	Set(ctx context.Context, key string, value any, typ reflect.Type) error

	// Unregister removes key. Removing an unknown key is not an error.
	Unregister(ctx context.Context, key string) error

	// Commit persists whatever the backend buffers internally.
	Commit(ctx context.Context) error

	// Discard drops whatever the backend buffered since the last Commit.
	Discard(ctx context.Context) error

	// Concurrency reports which commit phases may call the backend concurrently.
	Concurrency() domain.Concurrency
}

// BackendFactory opens the backend described by a configuration.
type BackendFactory interface {
	// Open connects to the backend. The returned close function releases its resources.
	Open(ctx context.Context, cfg domain.BackendConfig) (Backend, func() error, error)
}
