// Package writeback implements a write-back cache in front of a settings backend.
//
// Reads are memoized per key with single-flight fetches, writes are buffered in a working
// set and only reach the backend when Store is called. Every operation except Store takes a
// shared slot of the cache lock; Store takes the exclusive slot.
package writeback

import (
	"context"
	"reflect"
	"sync"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cache implements ports.Settings on top of a ports.Backend.
type Cache struct {
	backend  ports.Backend
	policy   domain.Concurrency
	logger   ports.Logger
	tracer   ports.Tracer
	observer ports.Observer

	lock    *rwLock
	entries sync.Map // string -> *entry

	inserted *keySet[insertion]
	changed  *keySet[struct{}]
	deleted  *keySet[struct{}]
}

// insertion is the registration data captured for a key registered in this session.
type insertion struct {
	defaultValue any
	typ          reflect.Type
}

var _ ports.Settings = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithConcurrency overrides the commit concurrency policy reported by the backend.
func WithConcurrency(policy domain.Concurrency) Option {
	return func(c *Cache) {
		c.policy = policy
	}
}

// New creates a Cache in front of backend.
func New(
	backend ports.Backend,
	logger ports.Logger,
	tracer ports.Tracer,
	observer ports.Observer,
	opts ...Option,
) *Cache {
	c := &Cache{
		backend:  backend,
		policy:   backend.Concurrency(),
		logger:   logger,
		tracer:   tracer,
		observer: observer,
		lock:     newRWLock(),
		inserted: newKeySet[insertion](),
		changed:  newKeySet[struct{}](),
		deleted:  newKeySet[struct{}](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value of key as typ.
// Uncached keys are fetched from the backend once; concurrent readers share the fetch.
// A key unregistered in this session is not found until Store or Discard.
func (c *Cache) Get(ctx context.Context, key string, typ reflect.Type) (any, error) {
	if err := c.lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer c.lock.RUnlock()

	if c.deleted.Has(key) {
		return nil, notFound(key)
	}

	e, hit := c.lookup(ctx, key, typ)
	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, zerr.With(zerr.Wrap(ctx.Err(), "waiting for setting"), "key", key)
	}

	c.observer.OnCacheLookup(ctx, domain.CacheLookupEvent{Key: key, Hit: hit, Error: e.err})
	if e.err != nil {
		return nil, e.err
	}
	if !domain.Compatible(e.typ, e.value, typ) {
		if e.fetched {
			// The memoized value was decoded for another reader's type; the backend decides.
			return c.backend.Get(ctx, key, typ)
		}
		return nil, mismatch(key, e.typ, typ)
	}
	return e.value, nil
}

// lookup returns the entry for key, starting a fetch when the key is not cached yet.
func (c *Cache) lookup(ctx context.Context, key string, typ reflect.Type) (*entry, bool) {
	if v, ok := c.entries.Load(key); ok {
		return v.(*entry), true
	}

	pending := newPendingEntry()
	actual, loaded := c.entries.LoadOrStore(key, pending)
	if loaded {
		return actual.(*entry), true
	}

	// The fetch outlives a cancelled caller so other readers waiting on it are not failed.
	go c.fetch(context.WithoutCancel(ctx), key, typ, pending)
	return pending, false
}

func (c *Cache) fetch(ctx context.Context, key string, typ reflect.Type, e *entry) {
	value, err := c.backend.Get(ctx, key, typ)
	if err != nil {
		// Failed fetches are not memoized.
		c.entries.CompareAndDelete(key, e)
		e.resolve(nil, nil, err)
		return
	}
	e.fetched = true
	e.resolve(value, typ, nil)
}

// IsRegistered reports whether key exists in the working set or in the backend.
// A key unregistered in this session reports false until Store or Discard, even while the
// backend still holds it.
func (c *Cache) IsRegistered(ctx context.Context, key string) (bool, error) {
	if err := c.lock.RLock(ctx); err != nil {
		return false, err
	}
	defer c.lock.RUnlock()

	if c.deleted.Has(key) {
		return false, nil
	}
	if c.inserted.Has(key) {
		return true, nil
	}
	if v, ok := c.entries.Load(key); ok && v.(*entry).resolved() {
		return true, nil
	}
	return c.backend.IsRegistered(ctx, key)
}

// Set replaces the value of key in the working set.
// The key is marked changed unless it was registered in this session.
func (c *Cache) Set(ctx context.Context, key string, value any, typ reflect.Type) error {
	if err := c.lock.RLock(ctx); err != nil {
		return err
	}
	defer c.lock.RUnlock()

	if c.deleted.Has(key) {
		return notFound(key)
	}
	if !domain.Assignable(value, typ) {
		return mismatch(key, reflect.TypeOf(value), typ)
	}

	declared := typ
	if ins, ok := c.inserted.Get(key); ok {
		declared = ins.typ
	} else if v, ok := c.entries.Load(key); ok {
		if e := v.(*entry); e.resolved() && e.typ != nil {
			declared = e.typ
		}
	}
	if !domain.Assignable(value, declared) {
		return mismatch(key, reflect.TypeOf(value), declared)
	}

	c.entries.Store(key, newResolvedEntry(value, declared))
	if !c.inserted.Has(key) {
		c.changed.Put(key, struct{}{})
	}
	return nil
}

// Register creates key in the working set with the given default and initial values.
func (c *Cache) Register(ctx context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error {
	if err := c.lock.RLock(ctx); err != nil {
		return err
	}
	defer c.lock.RUnlock()

	if !domain.Assignable(defaultValue, typ) || !domain.Assignable(initialValue, typ) {
		err := zerr.With(zerr.Wrap(domain.ErrIncompatibleDefaults, "values do not match the declared type"), "key", key)
		return zerr.With(err, "type", typeString(typ))
	}

	c.deleted.Delete(key)
	c.changed.Delete(key)
	c.inserted.Put(key, insertion{defaultValue: defaultValue, typ: typ})
	c.entries.Store(key, newResolvedEntry(initialValue, typ))
	return nil
}

// Unregister removes key from the working set and records the deletion.
func (c *Cache) Unregister(ctx context.Context, key string) error {
	if err := c.lock.RLock(ctx); err != nil {
		return err
	}
	defer c.lock.RUnlock()

	c.deleted.Put(key, struct{}{})
	c.entries.Delete(key)
	c.changed.Delete(key)
	c.inserted.Delete(key)
	return nil
}

// Discard drops the working set and the cached values.
func (c *Cache) Discard(ctx context.Context) error {
	if err := c.lock.RLock(ctx); err != nil {
		return err
	}
	defer c.lock.RUnlock()

	c.entries.Clear()
	c.inserted.Clear()
	c.changed.Clear()
	c.deleted.Clear()
	return c.backend.Discard(ctx)
}

func notFound(key string) error {
	return zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "setting is not registered"), "key", key)
}

func mismatch(key string, registered, requested reflect.Type) error {
	err := zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "incompatible setting type"), "key", key)
	err = zerr.With(err, "registered_type", typeString(registered))
	return zerr.With(err, "requested_type", typeString(requested))
}

func typeString(typ reflect.Type) string {
	if typ == nil {
		return "<nil>"
	}
	return typ.String()
}
