// Package stack layers several settings stores behind one ports.Settings.
package stack

import (
	"context"
	"errors"
	"reflect"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// Stack resolves reads through ordered layers and sends mutations to one writable layer.
// The writable layer, when present, is always consulted first.
type Stack struct {
	writable ports.Settings
	layers   []ports.ReadOnlySettings
}

var _ ports.Settings = (*Stack)(nil)

// New creates a stack of read-only layers, highest priority first.
func New(layers ...ports.ReadOnlySettings) *Stack {
	return &Stack{layers: layers}
}

// NewWritable creates a stack whose mutations go to writable, with fallbacks below it.
func NewWritable(writable ports.Settings, fallbacks ...ports.ReadOnlySettings) *Stack {
	layers := make([]ports.ReadOnlySettings, 0, len(fallbacks)+1)
	layers = append(layers, writable)
	layers = append(layers, fallbacks...)
	return &Stack{writable: writable, layers: layers}
}

// Get returns the value of key from the first layer that has it.
func (s *Stack) Get(ctx context.Context, key string, typ reflect.Type) (any, error) {
	layer, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	return layer.Get(ctx, key, typ)
}

// IsRegistered reports whether any layer has key.
func (s *Stack) IsRegistered(ctx context.Context, key string) (bool, error) {
	_, err := s.find(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Stack) find(ctx context.Context, key string) (ports.ReadOnlySettings, error) {
	for _, layer := range s.layers {
		ok, err := layer.IsRegistered(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return layer, nil
		}
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "no layer has the setting"), "key", key)
}

// Register creates key in the writable layer.
func (s *Stack) Register(ctx context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error {
	w, err := s.target()
	if err != nil {
		return err
	}
	return w.Register(ctx, key, defaultValue, initialValue, typ)
}

// Set replaces the value of key in the writable layer. A key that only exists in a lower
// layer is copied up with the lower value as default.
func (s *Stack) Set(ctx context.Context, key string, value any, typ reflect.Type) error {
	w, err := s.target()
	if err != nil {
		return err
	}
	ok, err := w.IsRegistered(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		return w.Set(ctx, key, value, typ)
	}

	layer, err := s.find(ctx, key)
	if err != nil {
		return err
	}
	lower, err := layer.Get(ctx, key, typ)
	if err != nil {
		return err
	}
	return w.Register(ctx, key, lower, value, typ)
}

// Unregister removes key from the writable layer. Lower layers are not affected.
func (s *Stack) Unregister(ctx context.Context, key string) error {
	w, err := s.target()
	if err != nil {
		return err
	}
	return w.Unregister(ctx, key)
}

// Store commits the writable layer.
func (s *Stack) Store(ctx context.Context) error {
	w, err := s.target()
	if err != nil {
		return err
	}
	return w.Store(ctx)
}

// Discard drops pending changes of the writable layer.
func (s *Stack) Discard(ctx context.Context) error {
	w, err := s.target()
	if err != nil {
		return err
	}
	return w.Discard(ctx)
}

func (s *Stack) target() (ports.Settings, error) {
	if s.writable == nil {
		return nil, zerr.Wrap(domain.ErrReadOnly, "stack has no writable layer")
	}
	return s.writable, nil
}
