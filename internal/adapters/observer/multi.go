package observer

import (
	"context"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
)

// NoOpObserver is a no-op implementation of ports.Observer.
type NoOpObserver struct{}

// NewNoOpObserver creates a NoOpObserver.
func NewNoOpObserver() NoOpObserver {
	return NoOpObserver{}
}

// OnCacheLookup does nothing.
func (NoOpObserver) OnCacheLookup(context.Context, domain.CacheLookupEvent) {}

// OnCommit does nothing.
func (NoOpObserver) OnCommit(context.Context, domain.CommitEvent) {}

// OnMigration does nothing.
func (NoOpObserver) OnMigration(context.Context, domain.MigrationEvent) {}

// Multi fans events out to several observers in order.
type Multi struct {
	Observers []ports.Observer
}

// NewMulti creates a Multi observer.
func NewMulti(observers ...ports.Observer) *Multi {
	return &Multi{Observers: observers}
}

// OnCacheLookup forwards the event to every observer.
func (m *Multi) OnCacheLookup(ctx context.Context, event domain.CacheLookupEvent) {
	for _, obs := range m.Observers {
		obs.OnCacheLookup(ctx, event)
	}
}

// OnCommit forwards the event to every observer.
func (m *Multi) OnCommit(ctx context.Context, event domain.CommitEvent) {
	for _, obs := range m.Observers {
		obs.OnCommit(ctx, event)
	}
}

// OnMigration forwards the event to every observer.
func (m *Multi) OnMigration(ctx context.Context, event domain.MigrationEvent) {
	for _, obs := range m.Observers {
		obs.OnMigration(ctx, event)
	}
}

// WriteTextfile writes the metrics of the first observer that exports them.
func (m *Multi) WriteTextfile(path string) error {
	for _, obs := range m.Observers {
		if exporter, ok := obs.(interface{ WriteTextfile(string) error }); ok {
			return exporter.WriteTextfile(path)
		}
	}
	return nil
}
