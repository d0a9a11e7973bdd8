package migration

import (
	"context"
	"reflect"
	"slices"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// OpStep is a migration built from declarative operations.
// Up runs the operations in order; Down runs their inverses in reverse order.
type OpStep struct {
	desc *domain.Descriptor
	ops  []op
}

var _ ports.Migration = (*OpStep)(nil)

// op is a validated domain.OpSpec with its type resolved and its values coerced.
type op struct {
	kind     domain.OpKind
	key      string
	to       string
	typ      reflect.Type
	value    any
	def      any
	previous any
	// restorable is false when the op carries no data to undo it.
	restorable bool
	// hasDefault is set when a rename declares the default of the moved setting.
	hasDefault bool
}

// NewOpStep validates specs and creates a declarative migration step.
func NewOpStep(desc *domain.Descriptor, specs ...domain.OpSpec) (*OpStep, error) {
	if desc == nil {
		return nil, zerr.Wrap(domain.ErrMissingMigrationMetadata, "declarative migration has no descriptor")
	}
	ops := make([]op, 0, len(specs))
	for i, spec := range specs {
		o, err := compile(spec)
		if err != nil {
			err = zerr.With(err, "migration", desc.Key)
			return nil, zerr.With(err, "op_index", i)
		}
		ops = append(ops, o)
	}
	return &OpStep{desc: desc, ops: ops}, nil
}

// FromSpecs builds declarative steps from configuration.
func FromSpecs(specs []domain.MigrationSpec) ([]ports.Migration, error) {
	steps := make([]ports.Migration, 0, len(specs))
	for _, spec := range specs {
		step, err := NewOpStep(spec.Descriptor, spec.Ops...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func compile(spec domain.OpSpec) (op, error) {
	o := op{kind: spec.Kind, key: spec.Key, to: spec.To}
	if spec.Key == "" {
		return o, zerr.With(zerr.Wrap(domain.ErrInvalidValue, "operation has no key"), "op", string(spec.Kind))
	}

	needsType := spec.Kind != domain.OpRename
	if spec.Type != "" || needsType {
		name := spec.Type
		if name == "" {
			return o, zerr.With(zerr.Wrap(domain.ErrUnknownType, "operation has no type"), "key", spec.Key)
		}
		typ, err := domain.ResolveType(name)
		if err != nil {
			return o, err
		}
		o.typ = typ
	}

	coerce := func(v any) (any, error) {
		if o.typ == nil {
			return v, nil
		}
		return domain.CoerceValue(v, o.typ)
	}

	var err error
	switch spec.Kind {
	case domain.OpRegister:
		if o.def, err = coerce(spec.Default); err != nil {
			return o, err
		}
		o.value = o.def
		if spec.Value != nil {
			if o.value, err = coerce(spec.Value); err != nil {
				return o, err
			}
		}
		o.restorable = true
	case domain.OpSet:
		if o.value, err = coerce(spec.Value); err != nil {
			return o, err
		}
		if spec.Previous != nil {
			if o.previous, err = coerce(spec.Previous); err != nil {
				return o, err
			}
			o.restorable = true
		}
	case domain.OpRename:
		if spec.To == "" {
			return o, zerr.With(zerr.Wrap(domain.ErrInvalidValue, "rename has no target key"), "key", spec.Key)
		}
		if spec.Default != nil {
			if o.def, err = coerce(spec.Default); err != nil {
				return o, err
			}
			o.hasDefault = true
		}
		o.restorable = true
	case domain.OpUnregister:
		if spec.Default != nil {
			if o.def, err = coerce(spec.Default); err != nil {
				return o, err
			}
			o.restorable = true
		}
		o.previous = o.def
		if spec.Previous != nil {
			if o.previous, err = coerce(spec.Previous); err != nil {
				return o, err
			}
			o.restorable = true
		}
	default:
		return o, zerr.With(domain.ErrUnknownOperation, "op", string(spec.Kind))
	}
	return o, nil
}

// Descriptor returns the ordering metadata of the step.
func (s *OpStep) Descriptor() *domain.Descriptor {
	return s.desc
}

// Up applies the operations in order.
func (s *OpStep) Up(ctx context.Context, settings ports.Settings) error {
	for _, o := range s.ops {
		if err := o.apply(ctx, settings); err != nil {
			return zerr.With(err, "op", string(o.kind))
		}
	}
	return nil
}

// Down reverts the operations in reverse order. It refuses to start when any operation lacks
// the data needed to undo it.
func (s *OpStep) Down(ctx context.Context, settings ports.Settings) error {
	for _, o := range s.ops {
		if !o.restorable {
			err := zerr.With(zerr.Wrap(domain.ErrIrreversibleMigration, "operation has no previous value"), "migration", s.desc.Key)
			return zerr.With(err, "key", o.key)
		}
	}
	for _, o := range slices.Backward(s.ops) {
		if err := o.revert(ctx, settings); err != nil {
			return zerr.With(err, "op", string(o.kind))
		}
	}
	return nil
}

func (o op) apply(ctx context.Context, settings ports.Settings) error {
	switch o.kind {
	case domain.OpRegister:
		return settings.Register(ctx, o.key, o.def, o.value, o.typ)
	case domain.OpSet:
		return settings.Set(ctx, o.key, o.value, o.typ)
	case domain.OpRename:
		return o.move(ctx, settings, o.key, o.to)
	case domain.OpUnregister:
		return settings.Unregister(ctx, o.key)
	default:
		return zerr.With(domain.ErrUnknownOperation, "op", string(o.kind))
	}
}

func (o op) revert(ctx context.Context, settings ports.Settings) error {
	switch o.kind {
	case domain.OpRegister:
		return settings.Unregister(ctx, o.key)
	case domain.OpSet:
		return settings.Set(ctx, o.key, o.previous, o.typ)
	case domain.OpRename:
		return o.move(ctx, settings, o.to, o.key)
	case domain.OpUnregister:
		return settings.Register(ctx, o.key, o.def, o.previous, o.typ)
	default:
		return zerr.With(domain.ErrUnknownOperation, "op", string(o.kind))
	}
}

// move re-registers the value of from under to and removes from.
// Without a declared type the dynamic type of the current value is used. The declared default
// becomes the default under to; without one the moved value is also the default.
func (o op) move(ctx context.Context, settings ports.Settings, from, to string) error {
	typ := o.typ
	readAs := typ
	if readAs == nil {
		readAs = domain.TypeOf[any]()
	}
	value, err := settings.Get(ctx, from, readAs)
	if err != nil {
		return err
	}
	if typ == nil {
		if value == nil {
			return zerr.With(zerr.Wrap(domain.ErrInvalidValue, "cannot infer the type of a nil value"), "key", from)
		}
		typ = reflect.TypeOf(value)
	}
	def := value
	if o.hasDefault {
		if def, err = domain.CoerceValue(o.def, typ); err != nil {
			return zerr.With(err, "key", to)
		}
	}
	if err := settings.Register(ctx, to, def, value, typ); err != nil {
		return err
	}
	return settings.Unregister(ctx, from)
}
