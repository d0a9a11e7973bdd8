package domain

import "time"

// CacheLookupEvent is emitted for every read served by the write-back cache.
type CacheLookupEvent struct {
	Key string
	// Hit is true when the value was already cached or being fetched by another reader.
	Hit   bool
	Error error
}

// CommitEvent is emitted after every store of pending changes.
type CommitEvent struct {
	Deleted  int
	Inserted int
	Updated  int
	Duration time.Duration
	Error    error
}

// MigrationDirection tells whether a step ran forward or in reverse.
type MigrationDirection string

const (
	// DirectionUp applies a migration.
	DirectionUp MigrationDirection = "up"
	// DirectionDown rolls a migration back.
	DirectionDown MigrationDirection = "down"
)

// MigrationEvent is emitted after every executed migration step.
type MigrationEvent struct {
	Key        string
	SettingSet string
	Direction  MigrationDirection
	Duration   time.Duration
	Error      error
}
