package observer

import (
	"context"
	"fmt"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
)

// LogObserver reports migrations and failed commits through a ports.Logger.
// Cache lookups are too frequent to log and are ignored.
type LogObserver struct {
	logger ports.Logger
}

var _ ports.Observer = (*LogObserver)(nil)

// NewLogObserver creates a LogObserver.
func NewLogObserver(logger ports.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// OnCacheLookup does nothing.
func (o *LogObserver) OnCacheLookup(context.Context, domain.CacheLookupEvent) {}

// OnCommit logs failed commits.
func (o *LogObserver) OnCommit(_ context.Context, event domain.CommitEvent) {
	if event.Error == nil {
		return
	}
	o.logger.Warn(fmt.Sprintf("commit of %d deletions, %d insertions and %d updates failed after %s",
		event.Deleted, event.Inserted, event.Updated, event.Duration))
}

// OnMigration logs every executed step.
func (o *LogObserver) OnMigration(_ context.Context, event domain.MigrationEvent) {
	name := event.Key
	if event.SettingSet != "" {
		name = event.SettingSet + "/" + event.Key
	}
	if event.Error != nil {
		o.logger.Warn(fmt.Sprintf("migration %s (%s) failed after %s", name, event.Direction, event.Duration))
		return
	}
	o.logger.Info(fmt.Sprintf("migration %s (%s) completed in %s", name, event.Direction, event.Duration))
}
