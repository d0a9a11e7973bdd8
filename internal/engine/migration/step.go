package migration

import (
	"context"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// StepFunc transforms the settings held by a store.
type StepFunc func(ctx context.Context, settings ports.Settings) error

// Step is a migration implemented in code.
type Step struct {
	desc *domain.Descriptor
	up   StepFunc
	down StepFunc
}

var _ ports.Migration = (*Step)(nil)

// NewStep creates a migration step. A nil down makes the step irreversible.
func NewStep(desc *domain.Descriptor, up, down StepFunc) *Step {
	return &Step{desc: desc, up: up, down: down}
}

// Descriptor returns the ordering metadata of the step.
func (s *Step) Descriptor() *domain.Descriptor {
	return s.desc
}

// Up applies the step.
func (s *Step) Up(ctx context.Context, settings ports.Settings) error {
	if s.up == nil {
		return nil
	}
	return s.up(ctx, settings)
}

// Down reverts the step.
func (s *Step) Down(ctx context.Context, settings ports.Settings) error {
	if s.down == nil {
		return zerr.With(domain.ErrIrreversibleMigration, "migration", s.desc.Key)
	}
	return s.down(ctx, settings)
}
