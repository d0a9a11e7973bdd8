package ports

import (
	"context"
	"reflect"
)

// ReadOnlySettings is the read side of a settings store.
//
//go:generate go run go.uber.org/mock/mockgen -source=settings.go -destination=mocks/mock_settings.go -package=mocks
type ReadOnlySettings interface {
	// Get returns the current value of key as typ.
	Get(ctx context.Context, key string, typ reflect.Type) (any, error)
	// IsRegistered reports whether key currently exists.
	IsRegistered(ctx context.Context, key string) (bool, error)
}

// Settings is a settings store with an uncommitted working set.
// Mutations are only visible to the backend after Store.
type Settings interface {
	ReadOnlySettings

	// Register creates key with a default and an initial value.
	Register(ctx context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error
	// Set replaces the value of key.
	Set(ctx context.Context, key string, value any, typ reflect.Type) error
	// Unregister removes key.
	Unregister(ctx context.Context, key string) error
	// Store commits every pending change.
	Store(ctx context.Context) error
	// Discard drops every pending change.
	Discard(ctx context.Context) error
}
