package config

// Knobfile represents the structure of the knob.yaml configuration file.
type Knobfile struct {
	Backend    BackendDTO    `yaml:"backend"`
	Defaults   string        `yaml:"defaults"`
	Log        LogDTO        `yaml:"log"`
	Metrics    MetricsDTO    `yaml:"metrics"`
	Migrations MigrationsDTO `yaml:"migrations"`
}

// BackendDTO selects and configures the settings backend.
type BackendDTO struct {
	Kind   string `yaml:"kind"`
	Path   string `yaml:"path"`
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// LogDTO configures logging.
type LogDTO struct {
	JSON  bool `yaml:"json"`
	Spans bool `yaml:"spans"`
}

// MetricsDTO configures metric export.
type MetricsDTO struct {
	Textfile string `yaml:"textfile"`
}

// MigrationsDTO holds the declarative migrations.
type MigrationsDTO struct {
	Prefix string         `yaml:"prefix"`
	Steps  []MigrationDTO `yaml:"steps"`
}

// MigrationDTO represents one migration step in the configuration.
type MigrationDTO struct {
	Key     string   `yaml:"key"`
	Set     string   `yaml:"set"`
	Order   *int64   `yaml:"order"`
	Before  []string `yaml:"before"`
	After   []string `yaml:"after"`
	Aliases []string `yaml:"aliases"`
	Ops     []OpDTO  `yaml:"ops"`
}

// OpDTO represents one declarative operation of a migration step.
type OpDTO struct {
	Op       string `yaml:"op"`
	Key      string `yaml:"key"`
	To       string `yaml:"to"`
	Type     string `yaml:"type"`
	Value    any    `yaml:"value"`
	Default  any    `yaml:"default"`
	Previous any    `yaml:"previous"`
}

// envOverrides are applied on top of the file. Unset variables keep the file values.
type envOverrides struct {
	BackendKind      string `env:"KNOB_BACKEND_KIND"`
	BackendPath      string `env:"KNOB_BACKEND_PATH"`
	BackendDriver    string `env:"KNOB_BACKEND_DRIVER"`
	BackendDSN       string `env:"KNOB_BACKEND_DSN"`
	BackendTable     string `env:"KNOB_BACKEND_TABLE"`
	BackendURL       string `env:"KNOB_BACKEND_URL"`
	BackendPrefix    string `env:"KNOB_BACKEND_PREFIX"`
	Defaults         string `env:"KNOB_DEFAULTS"`
	LogJSON          *bool  `env:"KNOB_LOG_JSON"`
	LogSpans         *bool  `env:"KNOB_LOG_SPANS"`
	MetricsTextfile  string `env:"KNOB_METRICS_TEXTFILE"`
	MigrationsPrefix string `env:"KNOB_MIGRATIONS_PREFIX"`
}
