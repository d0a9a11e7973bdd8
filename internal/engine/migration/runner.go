// Package migration applies ordered migration steps to a settings store exactly once.
package migration

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/knob/internal/engine/ordering"
	"go.trai.ch/zerr"
)

var appliedType = domain.TypeOf[domain.AppliedMigrations]()

// Runner applies and rolls back migrations and keeps the applied record of a store.
type Runner struct {
	logger   ports.Logger
	tracer   ports.Tracer
	observer ports.Observer
	prefix   string
}

// NewRunner creates a Runner.
func NewRunner(logger ports.Logger, tracer ports.Tracer, observer ports.Observer) *Runner {
	return &Runner{
		logger:   logger,
		tracer:   tracer,
		observer: observer,
	}
}

// WithPrefix returns a copy of r whose applied record lives under <prefix>.AppliedMigrations.
func (r *Runner) WithPrefix(prefix string) *Runner {
	c := *r
	c.prefix = prefix
	return &c
}

// RecordKey returns the setting key of the applied record.
func (r *Runner) RecordKey() string {
	return domain.AppliedMigrationsSettingKey(r.prefix)
}

// StepStatus describes one step of a migration plan.
type StepStatus struct {
	Key        string
	SettingSet string
	Applied    bool
}

// Initialize registers an empty applied record unless the store already holds one.
func (r *Runner) Initialize(ctx context.Context, store ports.Settings) error {
	registered, err := store.IsRegistered(ctx, r.RecordKey())
	if err != nil {
		return err
	}
	if registered {
		return nil
	}
	empty := domain.AppliedMigrations{}
	if err := store.Register(ctx, r.RecordKey(), empty, empty, appliedType); err != nil {
		return err
	}
	return store.Store(ctx)
}

// RemoveFromStore drops the applied record. Settings created by migrations are kept.
func (r *Runner) RemoveFromStore(ctx context.Context, store ports.Settings) error {
	if err := store.Unregister(ctx, r.RecordKey()); err != nil {
		return err
	}
	return store.Store(ctx)
}

// IsApplied reports whether m, under its key or any alias, is recorded as applied.
func (r *Runner) IsApplied(ctx context.Context, store ports.ReadOnlySettings, m ports.Migration) (bool, error) {
	desc, err := describe(m)
	if err != nil {
		return false, err
	}
	record, err := r.applied(ctx, store)
	if err != nil {
		return false, err
	}
	return record.Contains(desc.SettingSet, desc.Identities()...), nil
}

// FilterApplied returns the steps that are not applied yet, in input order.
func (r *Runner) FilterApplied(ctx context.Context, store ports.ReadOnlySettings, steps []ports.Migration) ([]ports.Migration, error) {
	if _, err := validate(steps); err != nil {
		return nil, err
	}
	record, err := r.applied(ctx, store)
	if err != nil {
		return nil, err
	}
	return pending(steps, record), nil
}

// Status returns every step in execution order with its applied flag.
func (r *Runner) Status(ctx context.Context, store ports.ReadOnlySettings, steps []ports.Migration) ([]StepStatus, error) {
	ordered, err := r.sort(steps)
	if err != nil {
		return nil, err
	}
	record, err := r.applied(ctx, store)
	if err != nil {
		return nil, err
	}
	statuses := make([]StepStatus, len(ordered))
	for i, m := range ordered {
		desc := m.Descriptor()
		statuses[i] = StepStatus{
			Key:        desc.Key,
			SettingSet: desc.SettingSet,
			Applied:    record.Contains(desc.SettingSet, desc.Identities()...),
		}
	}
	return statuses, nil
}

// MigrateUp applies every unapplied step in order.
func (r *Runner) MigrateUp(ctx context.Context, store ports.Settings, steps []ports.Migration) error {
	return r.MigrateUpTo(ctx, store, steps, "")
}

// MigrateUpTo applies unapplied steps in order up to and including target.
// An empty target applies everything; an applied target is a no-op.
func (r *Runner) MigrateUpTo(ctx context.Context, store ports.Settings, steps []ports.Migration, target string) error {
	if _, err := validate(steps); err != nil {
		return err
	}
	record, err := r.applied(ctx, store)
	if err != nil {
		return err
	}
	ordered, err := r.sort(pending(steps, record))
	if err != nil {
		return err
	}

	if target != "" {
		idx := slices.IndexFunc(ordered, func(m ports.Migration) bool {
			return m.Descriptor().Matches(target)
		})
		switch {
		case idx >= 0:
			ordered = ordered[:idx+1]
		case appliedTarget(steps, record, target):
			r.logger.Info(fmt.Sprintf("migration %s is already applied", target))
			return nil
		default:
			return zerr.With(domain.ErrUnknownMigration, "migration", target)
		}
	}

	ctx, span := r.tracer.Start(ctx, "migrate.up", ports.WithAttribute("migration.count", len(ordered)))
	defer span.End()
	r.tracer.EmitPlan(ctx, keys(ordered))

	for _, m := range ordered {
		next, err := r.runStep(ctx, store, m, domain.DirectionUp, record)
		if err != nil {
			span.RecordError(err)
			return err
		}
		record = next
	}
	return nil
}

// MigrateDown rolls back applied steps in reverse order. Rolling back stops before target,
// which stays applied; an empty target rolls back every applied step.
func (r *Runner) MigrateDown(ctx context.Context, store ports.Settings, steps []ports.Migration, target string) error {
	if _, err := validate(steps); err != nil {
		return err
	}
	record, err := r.applied(ctx, store)
	if err != nil {
		return err
	}
	applied := slices.DeleteFunc(slices.Clone(steps), func(m ports.Migration) bool {
		desc := m.Descriptor()
		return !record.Contains(desc.SettingSet, desc.Identities()...)
	})
	ordered, err := r.sort(applied)
	if err != nil {
		return err
	}
	slices.Reverse(ordered)

	if target != "" {
		idx := slices.IndexFunc(ordered, func(m ports.Migration) bool {
			return m.Descriptor().Matches(target)
		})
		if idx < 0 {
			return zerr.With(domain.ErrMigrationNotApplied, "migration", target)
		}
		ordered = ordered[:idx]
	}

	ctx, span := r.tracer.Start(ctx, "migrate.down", ports.WithAttribute("migration.count", len(ordered)))
	defer span.End()
	r.tracer.EmitPlan(ctx, keys(ordered))

	for _, m := range ordered {
		next, err := r.runStep(ctx, store, m, domain.DirectionDown, record)
		if err != nil {
			span.RecordError(err)
			return err
		}
		record = next
	}
	return nil
}

// runStep executes one step in direction and stores its changes together with the updated
// record. A failing step leaves the store without its pending changes.
func (r *Runner) runStep(
	ctx context.Context,
	store ports.Settings,
	m ports.Migration,
	direction domain.MigrationDirection,
	record domain.AppliedMigrations,
) (next domain.AppliedMigrations, err error) {
	desc := m.Descriptor()
	ctx, span := r.tracer.Start(ctx, "migration."+string(direction),
		ports.WithAttribute("migration.key", desc.Key),
		ports.WithAttribute("migration.set", desc.SettingSet),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		r.observer.OnMigration(ctx, domain.MigrationEvent{
			Key:        desc.Key,
			SettingSet: desc.SettingSet,
			Direction:  direction,
			Duration:   time.Since(start),
			Error:      err,
		})
	}()

	sentinel, run, verb := domain.ErrMigrationFailed, m.Up, "applied"
	next = record.Append(desc.SettingSet, desc.Key)
	if direction == domain.DirectionDown {
		sentinel, run, verb = domain.ErrRollbackFailed, m.Down, "rolled back"
		next = record.Remove(desc.SettingSet, desc.Identities()...)
	}

	if err := run(ctx, store); err != nil {
		return nil, r.abort(ctx, store, sentinel, desc, err)
	}
	if err := r.writeRecord(ctx, store, next); err != nil {
		return nil, r.abort(ctx, store, sentinel, desc, err)
	}
	if err := store.Store(ctx); err != nil {
		return nil, r.abort(ctx, store, sentinel, desc, err)
	}

	r.logger.Info(fmt.Sprintf("migration %s %s", desc.Key, verb))
	return next, nil
}

func (r *Runner) abort(
	ctx context.Context,
	store ports.Settings,
	sentinel error,
	desc *domain.Descriptor,
	cause error,
) error {
	if discardErr := store.Discard(ctx); discardErr != nil {
		r.logger.Warn(fmt.Sprintf("discarding changes of migration %s failed: %v", desc.Key, discardErr))
	}
	err := zerr.With(zerr.Wrap(cause, sentinel.Error()), "migration", desc.Key)
	return &stepError{sentinel: sentinel, err: err}
}

func (r *Runner) writeRecord(ctx context.Context, store ports.Settings, record domain.AppliedMigrations) error {
	registered, err := store.IsRegistered(ctx, r.RecordKey())
	if err != nil {
		return err
	}
	if !registered {
		return store.Register(ctx, r.RecordKey(), domain.AppliedMigrations{}, record, appliedType)
	}
	return store.Set(ctx, r.RecordKey(), record, appliedType)
}

// applied reads the applied record. A store without one has nothing applied.
func (r *Runner) applied(ctx context.Context, store ports.ReadOnlySettings) (domain.AppliedMigrations, error) {
	registered, err := store.IsRegistered(ctx, r.RecordKey())
	if err != nil {
		return nil, err
	}
	if !registered {
		return domain.AppliedMigrations{}, nil
	}
	value, err := store.Get(ctx, r.RecordKey(), appliedType)
	if err != nil {
		return nil, err
	}
	record, _ := value.(domain.AppliedMigrations)
	if record == nil {
		record = domain.AppliedMigrations{}
	}
	return record, nil
}

// sort validates steps and returns them in execution order.
// Every call orders with a fresh memo.
func (r *Runner) sort(steps []ports.Migration) ([]ports.Migration, error) {
	descs, err := validate(steps)
	if err != nil {
		return nil, err
	}
	order, err := ordering.New().Sort(descs)
	if err != nil {
		return nil, err
	}
	ordered := make([]ports.Migration, len(order))
	for i, idx := range order {
		ordered[i] = steps[idx]
	}
	return ordered, nil
}

// stepError carries the migration sentinel next to the wrapped cause.
type stepError struct {
	sentinel error
	err      error
}

func (e *stepError) Error() string {
	return e.err.Error()
}

func (e *stepError) Unwrap() []error {
	return []error{e.sentinel, e.err}
}

func describe(m ports.Migration) (*domain.Descriptor, error) {
	if m == nil || m.Descriptor() == nil {
		return nil, zerr.Wrap(domain.ErrMissingMigrationMetadata, "migration has no descriptor")
	}
	desc := m.Descriptor()
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

// validate checks every descriptor and rejects steps of one set that share a key or alias.
func validate(steps []ports.Migration) ([]*domain.Descriptor, error) {
	descs := make([]*domain.Descriptor, len(steps))
	seen := make(map[[2]string]string, len(steps))
	for i, m := range steps {
		desc, err := describe(m)
		if err != nil {
			return nil, err
		}
		for _, id := range desc.Identities() {
			slot := [2]string{desc.SettingSet, id}
			if owner, ok := seen[slot]; ok {
				err := zerr.With(zerr.Wrap(domain.ErrDuplicateMigration, "identity is used twice"), "migration", id)
				return nil, zerr.With(err, "owner", owner)
			}
			seen[slot] = desc.Key
		}
		descs[i] = desc
	}
	return descs, nil
}

// pending returns the steps of a validated list that are not recorded as applied.
func pending(steps []ports.Migration, record domain.AppliedMigrations) []ports.Migration {
	return slices.DeleteFunc(slices.Clone(steps), func(m ports.Migration) bool {
		desc := m.Descriptor()
		return record.Contains(desc.SettingSet, desc.Identities()...)
	})
}

func appliedTarget(steps []ports.Migration, record domain.AppliedMigrations, target string) bool {
	for _, m := range steps {
		desc := m.Descriptor()
		if desc.Matches(target) && record.Contains(desc.SettingSet, desc.Identities()...) {
			return true
		}
	}
	for set := range record {
		if record.Contains(set, target) {
			return true
		}
	}
	return false
}

func keys(steps []ports.Migration) []string {
	out := make([]string, len(steps))
	for i, m := range steps {
		out[i] = m.Descriptor().Key
	}
	return out
}
