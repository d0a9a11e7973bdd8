package writeback

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// commitPlan is a snapshot of the working set taken under the exclusive lock.
type commitPlan struct {
	deletes []string
	inserts []string
	updates []string
}

func (p commitPlan) keys() []string {
	keys := slices.Concat(p.deletes, p.inserts, p.updates)
	slices.Sort(keys)
	return slices.Compact(keys)
}

// Store commits the working set to the backend: deletions first, then insertions with the
// currently cached value as initial value, then updates of existing keys, then a backend flush.
//
// When a phase fails, later phases are skipped, the backend buffer is discarded and a
// *domain.CommitError reports which keys were already flushed. The working set is kept intact
// so Store can be retried; every backend call it replays is idempotent.
func (c *Cache) Store(ctx context.Context) (err error) {
	if err := c.lock.Lock(ctx); err != nil {
		return err
	}
	defer c.lock.Unlock()

	ctx, span := c.tracer.Start(ctx, "settings.store")
	defer span.End()

	plan := c.plan()
	span.SetAttribute("settings.deleted", len(plan.deletes))
	span.SetAttribute("settings.inserted", len(plan.inserts))
	span.SetAttribute("settings.updated", len(plan.updates))

	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		c.observer.OnCommit(ctx, domain.CommitEvent{
			Deleted:  len(plan.deletes),
			Inserted: len(plan.inserts),
			Updated:  len(plan.updates),
			Duration: time.Since(start),
			Error:    err,
		})
	}()

	phases := []struct {
		phase domain.CommitPhase
		keys  []string
		op    func(context.Context, string) error
	}{
		{domain.PhaseDelete, plan.deletes, c.backend.Unregister},
		{domain.PhaseInsert, plan.inserts, c.insert},
		{domain.PhaseUpdate, plan.updates, c.update},
	}

	var flushed []string
	for _, p := range phases {
		done, err := c.runPhase(ctx, p.phase, p.keys, p.op)
		flushed = append(flushed, done...)
		if err != nil {
			return c.fail(ctx, p.phase, plan, flushed, err)
		}
	}

	if err := c.backend.Commit(ctx); err != nil {
		return c.fail(ctx, domain.PhaseFlush, plan, flushed, zerr.Wrap(err, "backend commit failed"))
	}

	c.inserted.Clear()
	c.changed.Clear()
	c.deleted.Clear()
	return nil
}

func (c *Cache) plan() commitPlan {
	deletes := c.deleted.Keys()
	inserts := slices.DeleteFunc(c.inserted.Keys(), c.deleted.Has)
	updates := slices.DeleteFunc(c.changed.Keys(), func(key string) bool {
		return c.inserted.Has(key) || c.deleted.Has(key)
	})
	return commitPlan{deletes: deletes, inserts: inserts, updates: updates}
}

// runPhase applies op to every key, concurrently when the policy allows it for phase and in
// sorted order otherwise. It returns the keys whose backend call succeeded.
func (c *Cache) runPhase(
	ctx context.Context,
	phase domain.CommitPhase,
	keys []string,
	op func(context.Context, string) error,
) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	if !c.policy.Allows(phase) {
		flushed := make([]string, 0, len(keys))
		for _, key := range keys {
			if err := op(ctx, key); err != nil {
				return flushed, zerr.With(zerr.Wrap(err, "backend call failed"), "key", key)
			}
			flushed = append(flushed, key)
		}
		return flushed, nil
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		flushed = make([]string, 0, len(keys))
	)
	for _, key := range keys {
		g.Go(func() error {
			if err := op(ctx, key); err != nil {
				return zerr.With(zerr.Wrap(err, "backend call failed"), "key", key)
			}
			mu.Lock()
			flushed = append(flushed, key)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	slices.Sort(flushed)
	return flushed, err
}

func (c *Cache) insert(ctx context.Context, key string) error {
	ins, ok := c.inserted.Get(key)
	if !ok {
		return nil
	}
	value := ins.defaultValue
	if v, ok := c.entries.Load(key); ok {
		if e := v.(*entry); e.resolved() {
			value = e.value
		}
	}
	return c.backend.Register(ctx, key, ins.defaultValue, value, ins.typ)
}

func (c *Cache) update(ctx context.Context, key string) error {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil
	}
	e := v.(*entry)
	if !e.resolved() {
		return nil
	}
	return c.backend.Set(ctx, key, e.value, e.typ)
}

func (c *Cache) fail(
	ctx context.Context,
	phase domain.CommitPhase,
	plan commitPlan,
	flushed []string,
	cause error,
) error {
	if discardErr := c.backend.Discard(ctx); discardErr != nil {
		cause = errors.Join(cause, zerr.Wrap(discardErr, "backend discard failed"))
	}

	slices.Sort(flushed)
	pending := slices.DeleteFunc(plan.keys(), func(key string) bool {
		_, found := slices.BinarySearch(flushed, key)
		return found
	})

	c.logger.Warn(fmt.Sprintf("store failed in %s phase after flushing %d of %d changes; pending changes were kept",
		phase, len(flushed), len(flushed)+len(pending)))

	return &domain.CommitError{
		Phase:   phase,
		Flushed: flushed,
		Pending: pending,
		Err:     cause,
	}
}
