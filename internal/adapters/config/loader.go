// Package config provides the configuration loader for knob.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file and environment overrides.
type Loader struct {
	Logger ports.Logger
	// WorkDir is where discovery starts. The process working directory is used when empty.
	WorkDir string
	// Environ replaces the process environment when set.
	Environ map[string]string
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration at path, or discovers knob.yaml when path is empty.
// Without any file the defaults apply: a JSON file backend under .knob in the working directory.
func (l *Loader) Load(path string) (*domain.Config, error) {
	cwd := l.WorkDir
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, zerr.Wrap(domain.ErrConfigReadFailed, err.Error())
		}
	}

	var (
		file Knobfile
		base = cwd
	)
	if path == "" {
		found, ok := findConfiguration(cwd)
		if !ok {
			l.Logger.Info(fmt.Sprintf("no %s found, using defaults", domain.ConfigFileName))
		}
		path = found
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	if path != "" {
		if err := readAndUnmarshalYAML(path, &file); err != nil {
			return nil, err
		}
		base = filepath.Dir(path)
	}

	if err := l.applyEnv(&file); err != nil {
		return nil, err
	}

	cfg, err := toDomain(&file, base)
	if err != nil {
		return nil, zerr.With(err, "config", path)
	}
	return cfg, nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", false
		}
		currentDir = parentDir
	}
}

func readAndUnmarshalYAML(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(domain.ErrConfigNotFound, "path", path)
		}
		return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", path)
	}
	return nil
}

func (l *Loader) applyEnv(file *Knobfile) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: l.Environ}); err != nil {
		return zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&file.Backend.Kind, o.BackendKind)
	override(&file.Backend.Path, o.BackendPath)
	override(&file.Backend.Driver, o.BackendDriver)
	override(&file.Backend.DSN, o.BackendDSN)
	override(&file.Backend.Table, o.BackendTable)
	override(&file.Backend.URL, o.BackendURL)
	override(&file.Backend.Prefix, o.BackendPrefix)
	override(&file.Defaults, o.Defaults)
	override(&file.Metrics.Textfile, o.MetricsTextfile)
	override(&file.Migrations.Prefix, o.MigrationsPrefix)
	if o.LogJSON != nil {
		file.Log.JSON = *o.LogJSON
	}
	if o.LogSpans != nil {
		file.Log.Spans = *o.LogSpans
	}
	return nil
}

// toDomain validates the file and resolves relative paths against base.
func toDomain(file *Knobfile, base string) (*domain.Config, error) {
	cfg := &domain.Config{
		Backend: domain.BackendConfig{
			Kind:   domain.BackendKind(file.Backend.Kind),
			Path:   file.Backend.Path,
			Driver: file.Backend.Driver,
			DSN:    file.Backend.DSN,
			Table:  file.Backend.Table,
			URL:    file.Backend.URL,
			Prefix: file.Backend.Prefix,
		},
		Defaults:   resolvePath(base, file.Defaults),
		Log:        domain.LogConfig{JSON: file.Log.JSON, Spans: file.Log.Spans},
		Metrics:    domain.MetricsConfig{Textfile: resolvePath(base, file.Metrics.Textfile)},
		Migrations: domain.MigrationsConfig{Prefix: file.Migrations.Prefix},
	}
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = domain.BackendFile
	}

	switch cfg.Backend.Kind {
	case domain.BackendMemory:
	case domain.BackendFile:
		if cfg.Backend.Path == "" {
			cfg.Backend.Path = domain.DefaultSettingsPath()
		}
		cfg.Backend.Path = resolvePath(base, cfg.Backend.Path)
	case domain.BackendSQL:
		if cfg.Backend.Driver == "" {
			cfg.Backend.Driver = "sqlite"
		}
		if cfg.Backend.DSN == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "sql backend needs a dsn"), "driver", cfg.Backend.Driver)
		}
		if cfg.Backend.Driver == "sqlite" {
			cfg.Backend.DSN = resolvePath(base, cfg.Backend.DSN)
		}
	case domain.BackendRedis:
		if cfg.Backend.URL == "" {
			return nil, zerr.Wrap(domain.ErrInvalidConfig, "redis backend needs a url")
		}
	default:
		return nil, zerr.With(domain.ErrUnknownBackend, "kind", string(cfg.Backend.Kind))
	}

	seen := make(map[string]bool, len(file.Migrations.Steps))
	for i, dto := range file.Migrations.Steps {
		if dto.Key == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "migration step has no key"), "index", i)
		}
		if seen[dto.Set+"/"+dto.Key] {
			return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateMigration, "migration key is defined twice"), "migration", dto.Key)
		}
		seen[dto.Set+"/"+dto.Key] = true
		cfg.Migrations.Steps = append(cfg.Migrations.Steps, toMigrationSpec(dto))
	}
	return cfg, nil
}

func toMigrationSpec(dto MigrationDTO) domain.MigrationSpec {
	opts := []domain.DescriptorOption{
		domain.InSet(dto.Set),
		domain.RunsBefore(dto.Before...),
		domain.RunsAfter(dto.After...),
		domain.KnownAs(dto.Aliases...),
	}
	if dto.Order != nil {
		opts = append(opts, domain.AtOrder(*dto.Order))
	}

	ops := make([]domain.OpSpec, len(dto.Ops))
	for i, op := range dto.Ops {
		ops[i] = domain.OpSpec{
			Kind:     domain.OpKind(op.Op),
			Key:      op.Key,
			To:       op.To,
			Type:     op.Type,
			Value:    op.Value,
			Default:  op.Default,
			Previous: op.Previous,
		}
	}
	return domain.MigrationSpec{Descriptor: domain.NewDescriptor(dto.Key, opts...), Ops: ops}
}

// resolvePath makes a relative path absolute against base. Empty paths stay empty.
func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
