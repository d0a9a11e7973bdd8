package ports

import (
	"context"

	"go.trai.ch/knob/internal/core/domain"
)

// Migration is one step that evolves the settings held by a store.
//
//go:generate go run go.uber.org/mock/mockgen -source=migration.go -destination=mocks/mock_migration.go -package=mocks
type Migration interface {
	// Descriptor returns the ordering metadata of the step. A nil descriptor is invalid.
	Descriptor() *domain.Descriptor
	// Up applies the step to settings. Changes are committed by the caller.
	Up(ctx context.Context, settings Settings) error
	// Down reverts the step.
	Down(ctx context.Context, settings Settings) error
}
