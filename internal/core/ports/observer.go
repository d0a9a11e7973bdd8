package ports

import (
	"context"

	"go.trai.ch/knob/internal/core/domain"
)

// Observer receives events from the cache and the migration runner.
// Implementations must be safe for concurrent use and must not block.
//
//go:generate go run go.uber.org/mock/mockgen -source=observer.go -destination=mocks/mock_observer.go -package=mocks
type Observer interface {
	OnCacheLookup(ctx context.Context, event domain.CacheLookupEvent)
	OnCommit(ctx context.Context, event domain.CommitEvent)
	OnMigration(ctx context.Context, event domain.MigrationEvent)
}
