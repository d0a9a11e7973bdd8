// Package ordering decides the relative order of migration steps from their declared constraints.
package ordering

import (
	"cmp"
	"sync"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/zerr"
)

// Orderer compares migration steps and remembers every derived relation.
// The memo is keyed by setting set and step key and is safe for concurrent comparisons.
type Orderer struct {
	memo sync.Map // stepID -> *sync.Map(stepID -> domain.RelativeOrder)
}

// stepID identifies a step within its setting set. Keys may repeat across sets.
type stepID [2]string

func idOf(d *domain.Descriptor) stepID {
	return stepID{d.SettingSet, d.Key}
}

// New creates an Orderer with an empty memo.
func New() *Orderer {
	return &Orderer{}
}

// Reset forgets every memoized relation.
func (o *Orderer) Reset() {
	o.memo.Clear()
}

func (o *Orderer) relations(id stepID) *sync.Map {
	if m, ok := o.memo.Load(id); ok {
		return m.(*sync.Map)
	}
	m, _ := o.memo.LoadOrStore(id, &sync.Map{})
	return m.(*sync.Map)
}

// Compare returns how a relates to b: Before when a must run first, After when b must run
// first and Unrelated when either order is valid. Steps of different setting sets are always
// unrelated. Absolute orders, when both steps declare one, decide on their own.
func (o *Orderer) Compare(a, b *domain.Descriptor) (domain.RelativeOrder, error) {
	if a == nil || b == nil {
		return domain.Unrelated, zerr.Wrap(domain.ErrMissingMigrationMetadata, "cannot order a step without descriptor")
	}
	if a.Key == b.Key || a.SettingSet != b.SettingSet {
		return domain.Unrelated, nil
	}
	if a.Order != nil && b.Order != nil {
		return fromCmp(cmp.Compare(*a.Order, *b.Order)), nil
	}

	if cached, ok := o.relations(idOf(a)).Load(idOf(b)); ok {
		return cached.(domain.RelativeOrder), nil
	}

	rel, err := derive(a, b)
	if err != nil {
		return domain.Unrelated, err
	}
	if err := o.remember(a, b, rel); err != nil {
		return domain.Unrelated, err
	}
	if err := o.remember(b, a, rel.Flip()); err != nil {
		return domain.Unrelated, err
	}
	return rel, nil
}

// remember stores rel for (from, to) unless a relation is already memoized.
// A memoized relation that disagrees is a contradiction.
func (o *Orderer) remember(from, to *domain.Descriptor, rel domain.RelativeOrder) error {
	actual, loaded := o.relations(idOf(from)).LoadOrStore(idOf(to), rel)
	if loaded && actual.(domain.RelativeOrder) != rel {
		return impossible(from.Key, to.Key, "conflicts with a previously derived order")
	}
	return nil
}

// derive combines the constraints a declares about b with those b declares about a.
func derive(a, b *domain.Descriptor) (domain.RelativeOrder, error) {
	ab, err := votes(a, b)
	if err != nil {
		return domain.Unrelated, err
	}
	ba, err := votes(b, a)
	if err != nil {
		return domain.Unrelated, err
	}

	switch {
	case ab == domain.Unrelated:
		return ba.Flip(), nil
	case ba == domain.Unrelated || ba == ab.Flip():
		return ab, nil
	default:
		return domain.Unrelated, impossible(a.Key, b.Key, "steps disagree on their order")
	}
}

// votes returns what from declares about to, resolving aliases of to.
func votes(from, to *domain.Descriptor) (domain.RelativeOrder, error) {
	vote := domain.Unrelated
	cast := func(refs []string, rel domain.RelativeOrder) error {
		for _, ref := range refs {
			if !to.Matches(ref) {
				continue
			}
			if vote != domain.Unrelated && vote != rel {
				return impossible(from.Key, to.Key, "step is required both before and after")
			}
			vote = rel
		}
		return nil
	}
	if err := cast(from.Before, domain.Before); err != nil {
		return domain.Unrelated, err
	}
	if err := cast(from.After, domain.After); err != nil {
		return domain.Unrelated, err
	}
	return vote, nil
}

func fromCmp(c int) domain.RelativeOrder {
	switch {
	case c < 0:
		return domain.Before
	case c > 0:
		return domain.After
	default:
		return domain.Unrelated
	}
}

func impossible(a, b, reason string) error {
	err := zerr.With(zerr.Wrap(domain.ErrImpossibleOrder, reason), "migration", a)
	return zerr.With(err, "other", b)
}
