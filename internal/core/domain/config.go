package domain

// BackendKind selects the settings backend.
type BackendKind string

const (
	// BackendMemory keeps settings in process memory.
	BackendMemory BackendKind = "memory"
	// BackendFile keeps settings in a JSON or YAML document.
	BackendFile BackendKind = "file"
	// BackendSQL keeps settings in a database table.
	BackendSQL BackendKind = "sql"
	// BackendRedis keeps settings in Redis hashes.
	BackendRedis BackendKind = "redis"
)

// Config is the resolved knob configuration.
type Config struct {
	Backend BackendConfig
	// Defaults is an optional read-only file layered below the backend.
	Defaults   string
	Log        LogConfig
	Metrics    MetricsConfig
	Migrations MigrationsConfig
}

// BackendConfig describes how to reach the settings backend.
type BackendConfig struct {
	Kind BackendKind
	// Path of the document for the file backend.
	Path string
	// Driver is the database/sql driver name for the SQL backend (sqlite, pgx or mysql).
	Driver string
	DSN    string
	Table  string
	// URL is the Redis connection URL.
	URL    string
	Prefix string
}

// LogConfig controls the logger.
type LogConfig struct {
	JSON bool
	// Spans logs every finished trace span.
	Spans bool
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	// Textfile is written in the Prometheus text format after each command when set.
	Textfile string
}

// MigrationsConfig holds declaratively defined migrations.
type MigrationsConfig struct {
	// Prefix namespaces the applied-migrations record key.
	Prefix string
	Steps  []MigrationSpec
}

// MigrationSpec is one declaratively defined migration step.
type MigrationSpec struct {
	Descriptor *Descriptor
	Ops        []OpSpec
}

// OpKind names a declarative migration operation.
type OpKind string

const (
	// OpRegister registers a new setting.
	OpRegister OpKind = "register"
	// OpSet overwrites the value of a setting.
	OpSet OpKind = "set"
	// OpRename moves a setting to a new key.
	OpRename OpKind = "rename"
	// OpUnregister removes a setting.
	OpUnregister OpKind = "unregister"
)

// OpSpec is one declarative migration operation. Values are loosely typed and coerced to Type.
type OpSpec struct {
	Kind OpKind
	Key  string
	// To is the new key of a rename.
	To   string
	Type string
	// Value is the registered or assigned value.
	Value any
	// Default is the default value of a registered setting.
	Default any
	// Previous is restored when a set or unregister is rolled back.
	Previous any
}
