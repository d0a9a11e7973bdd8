// Package settings provides typed access to a settings store.
package settings

import (
	"context"
	"errors"
	"reflect"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// Get returns the value of key as T.
func Get[T any](ctx context.Context, s ports.ReadOnlySettings, key string) (T, error) {
	var zero T
	v, err := s.Get(ctx, key, domain.TypeOf[T]())
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "stored value has another type"), "key", key)
		return zero, zerr.With(err, "requested_type", domain.TypeOf[T]().String())
	}
	return typed, nil
}

// GetOr returns the value of key as T, or fallback when key is not registered.
func GetOr[T any](ctx context.Context, s ports.ReadOnlySettings, key string, fallback T) (T, error) {
	v, err := Get[T](ctx, s, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return fallback, nil
	}
	return v, err
}

// Set replaces the value of key.
func Set[T any](ctx context.Context, s ports.Settings, key string, value T) error {
	return s.Set(ctx, key, value, domain.TypeOf[T]())
}

// Register creates key with value as both default and initial value.
func Register[T any](ctx context.Context, s ports.Settings, key string, value T) error {
	return s.Register(ctx, key, value, value, domain.TypeOf[T]())
}

// RegisterZero creates key with the zero value of T as default and value as initial value.
func RegisterZero[T any](ctx context.Context, s ports.Settings, key string, value T) error {
	var zero T
	return s.Register(ctx, key, zero, value, domain.TypeOf[T]())
}

// RegisterPair creates key with independently typed default and initial values.
// The declared type is inferred from the pair; families lists interface types both values
// may share when neither is assignable to the other.
func RegisterPair(
	ctx context.Context,
	s ports.Settings,
	key string,
	defaultValue, initialValue any,
	families ...reflect.Type,
) error {
	typ, err := domain.CommonType(defaultValue, initialValue, families...)
	if err != nil {
		return zerr.With(err, "key", key)
	}
	return s.Register(ctx, key, defaultValue, initialValue, typ)
}
