package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// RelativeOrder describes how one migration step relates to another.
type RelativeOrder int

const (
	// Before means the step must run before the other step.
	Before RelativeOrder = -1
	// Unrelated means the steps may run in any order relative to each other.
	Unrelated RelativeOrder = 0
	// After means the step must run after the other step.
	After RelativeOrder = 1
)

// Flip returns the relation seen from the other step.
func (r RelativeOrder) Flip() RelativeOrder {
	return -r
}

func (r RelativeOrder) String() string {
	switch r {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "unrelated"
	}
}

// Descriptor is the declarative ordering metadata of one migration step.
type Descriptor struct {
	// Key is the stable identity of the step. It is what the applied record stores.
	Key string
	// SettingSet scopes the step. Steps are only ordered against steps of the same set.
	SettingSet string
	// Order is an optional absolute position. It takes precedence over relative links.
	Order *int64
	// Before lists steps (by key or alias) that must run after this one.
	Before []string
	// After lists steps (by key or alias) that must run before this one.
	After []string
	// Aliases are former keys of this step.
	Aliases []string
}

// DescriptorOption configures a Descriptor.
type DescriptorOption func(*Descriptor)

// NewDescriptor creates a descriptor for the step identified by key.
func NewDescriptor(key string, opts ...DescriptorOption) *Descriptor {
	d := &Descriptor{Key: key}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InSet scopes the step to a setting set.
func InSet(name string) DescriptorOption {
	return func(d *Descriptor) {
		d.SettingSet = name
	}
}

// AtOrder pins the step to an absolute position.
func AtOrder(order int64) DescriptorOption {
	return func(d *Descriptor) {
		d.Order = &order
	}
}

// RunsBefore declares steps that must run after this one.
func RunsBefore(refs ...string) DescriptorOption {
	return func(d *Descriptor) {
		d.Before = append(d.Before, refs...)
	}
}

// RunsAfter declares steps that must run before this one.
func RunsAfter(refs ...string) DescriptorOption {
	return func(d *Descriptor) {
		d.After = append(d.After, refs...)
	}
}

// KnownAs records former keys of the step.
func KnownAs(aliases ...string) DescriptorOption {
	return func(d *Descriptor) {
		d.Aliases = append(d.Aliases, aliases...)
	}
}

// Matches reports whether ref names this step, either by key or by alias.
func (d *Descriptor) Matches(ref string) bool {
	return ref == d.Key || slices.Contains(d.Aliases, ref)
}

// Identities returns the key followed by all aliases.
func (d *Descriptor) Identities() []string {
	return append([]string{d.Key}, d.Aliases...)
}

// Validate checks the descriptor on its own. Conflicts that only appear once aliases of
// other steps are resolved are reported by the orderer.
func (d *Descriptor) Validate() error {
	if d.Key == "" {
		return zerr.Wrap(ErrMissingMigrationMetadata, "migration key is empty")
	}
	for _, ref := range d.Before {
		if slices.Contains(d.After, ref) {
			err := zerr.With(zerr.Wrap(ErrImpossibleOrder, "step is required both before and after"), "migration", d.Key)
			return zerr.With(err, "other", ref)
		}
	}
	return nil
}
