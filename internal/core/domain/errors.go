package domain

import "go.trai.ch/zerr"

var (
	// ErrTypeMismatch is returned when a setting is read or written with a type that is not
	// compatible with its registered type.
	ErrTypeMismatch = zerr.New("setting type mismatch")

	// ErrKeyNotFound is returned when a setting key is not registered.
	ErrKeyNotFound = zerr.New("setting not found")

	// ErrIncompatibleDefaults is returned when the default and initial values of a setting
	// share no common type.
	ErrIncompatibleDefaults = zerr.New("default and initial values are not compatible")

	// ErrReadOnly is returned when a mutation reaches a settings layer that cannot be written.
	ErrReadOnly = zerr.New("settings layer is read-only")

	// ErrLockFailed is returned when waiting for the settings lock was aborted.
	ErrLockFailed = zerr.New("failed to acquire settings lock")

	// ErrCommitFailed is returned when pending changes could not be stored in the backend.
	ErrCommitFailed = zerr.New("failed to store pending changes")

	// ErrImpossibleOrder is returned when migration ordering constraints contradict each other.
	ErrImpossibleOrder = zerr.New("impossible migration order")

	// ErrMissingMigrationMetadata is returned when a migration step carries no descriptor or key.
	ErrMissingMigrationMetadata = zerr.New("migration is missing its descriptor")

	// ErrDuplicateMigration is returned when two migration steps share the same key.
	ErrDuplicateMigration = zerr.New("duplicate migration key")

	// ErrUnknownMigration is returned when a target migration is not part of the requested steps.
	ErrUnknownMigration = zerr.New("unknown migration")

	// ErrMigrationNotApplied is returned when rolling back to a migration that was never applied.
	ErrMigrationNotApplied = zerr.New("migration is not applied")

	// ErrMigrationFailed is returned when a migration step fails while running forward.
	ErrMigrationFailed = zerr.New("migration failed")

	// ErrRollbackFailed is returned when a migration step fails while running in reverse.
	ErrRollbackFailed = zerr.New("migration rollback failed")

	// ErrIrreversibleMigration is returned when a step without a reverse transformation is rolled back.
	ErrIrreversibleMigration = zerr.New("migration cannot be rolled back")

	// ErrUnknownType is returned when a type name cannot be resolved.
	ErrUnknownType = zerr.New("unknown setting type")

	// ErrInvalidValue is returned when a raw value cannot be converted to its declared type.
	ErrInvalidValue = zerr.New("invalid setting value")

	// ErrUnknownOperation is returned when a declarative migration names an unsupported operation.
	ErrUnknownOperation = zerr.New("unknown migration operation")

	// ErrUnknownBackend is returned when the configured backend kind is not supported.
	ErrUnknownBackend = zerr.New("unknown settings backend")

	// ErrBackendOpenFailed is returned when the settings backend cannot be opened.
	ErrBackendOpenFailed = zerr.New("failed to open settings backend")

	// ErrStoreReadFailed is returned when the backend cannot read a setting.
	ErrStoreReadFailed = zerr.New("failed to read setting")

	// ErrStoreWriteFailed is returned when the backend cannot write a setting.
	ErrStoreWriteFailed = zerr.New("failed to write setting")

	// ErrStoreMarshalFailed is returned when a setting value cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal setting")

	// ErrStoreUnmarshalFailed is returned when a stored setting value cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal setting")

	// ErrConfigNotFound is returned when no configuration file can be located.
	ErrConfigNotFound = zerr.New("could not find " + ConfigFileName)

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the configuration is structurally valid but semantically wrong.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrWatchUnsupported is returned when the configured backend cannot be watched for changes.
	ErrWatchUnsupported = zerr.New("backend does not support watching")

	// ErrWatchFailed is returned when the file system watch cannot be set up.
	ErrWatchFailed = zerr.New("failed to watch settings")
)
