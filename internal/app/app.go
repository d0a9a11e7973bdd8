// Package app implements the application layer for knob.
package app

import (
	"context"
	"errors"
	"reflect"

	"go.trai.ch/knob/internal/adapters/filestore" //nolint:depguard // Defaults layer is a read-only document
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/knob/internal/engine/migration"
	"go.trai.ch/knob/internal/engine/stack"
	"go.trai.ch/knob/internal/engine/writeback"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	backends     ports.BackendFactory
	runner       *migration.Runner
	watcher      ports.Watcher
	logger       ports.Logger
	tracer       ports.Tracer
	observer     ports.Observer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	backends ports.BackendFactory,
	runner *migration.Runner,
	watcher ports.Watcher,
	log ports.Logger,
	tracer ports.Tracer,
	observer ports.Observer,
) *App {
	return &App{
		configLoader: loader,
		backends:     backends,
		runner:       runner,
		watcher:      watcher,
		logger:       log,
		tracer:       tracer,
		observer:     observer,
	}
}

// Options configures a single command.
type Options struct {
	// ConfigPath points at knob.yaml. Empty searches upwards from the working directory.
	ConfigPath string
	// Type is the value type name used by get and set. Empty infers it from the stored value.
	Type string
}

// session is an opened settings store together with the migrations of its configuration.
type session struct {
	settings ports.Settings
	runner   *migration.Runner
	steps    []ports.Migration
	closers  []func() error
}

type jsonSwitch interface {
	SetJSON(enable bool)
}

type textfileWriter interface {
	WriteTextfile(path string) error
}

type spanLogSwitch interface {
	SetSpanLogging(enable bool)
}

type spanFlusher interface {
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func (a *App) open(ctx context.Context, opts Options) (*session, error) {
	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if l, ok := a.logger.(jsonSwitch); ok {
		l.SetJSON(cfg.Log.JSON)
	}
	if t, ok := a.tracer.(spanLogSwitch); ok {
		t.SetSpanLogging(cfg.Log.Spans)
	}

	steps, err := migration.FromSpecs(cfg.Migrations.Steps)
	if err != nil {
		return nil, err
	}

	backend, closeBackend, err := a.backends.Open(ctx, cfg.Backend)
	if err != nil {
		return nil, err
	}

	s := &session{
		runner: a.runner.WithPrefix(cfg.Migrations.Prefix),
		steps:  steps,
	}
	s.closers = append(s.closers, closeBackend)
	if f, ok := a.tracer.(spanFlusher); ok {
		s.closers = append(s.closers, func() error {
			return f.ForceFlush(context.WithoutCancel(ctx))
		})
	}
	if cfg.Metrics.Textfile != "" {
		s.closers = append(s.closers, a.metricsExporter(cfg.Metrics.Textfile))
	}

	cache := writeback.New(backend, a.logger, a.tracer, a.observer)
	s.settings = cache
	if cfg.Defaults != "" {
		defaults, err := filestore.NewStore(cfg.Defaults)
		if err != nil {
			return nil, errors.Join(err, s.close())
		}
		s.settings = stack.NewWritable(cache, defaults)
	}
	return s, nil
}

func (a *App) metricsExporter(path string) func() error {
	return func() error {
		w, ok := a.observer.(textfileWriter)
		if !ok {
			return nil
		}
		return w.WriteTextfile(path)
	}
}

func (s *session) close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// finish closes s and folds a close failure into err.
func (a *App) finish(s *session, err *error) {
	if closeErr := s.close(); closeErr != nil {
		if *err == nil {
			*err = closeErr
			return
		}
		a.logger.Warn("failed to close settings store: " + closeErr.Error())
	}
}

// Get returns the formatted value of key.
func (a *App) Get(ctx context.Context, key string, opts Options) (_ string, err error) {
	typ, err := resolveType(opts.Type)
	if err != nil {
		return "", err
	}

	s, err := a.open(ctx, opts)
	if err != nil {
		return "", err
	}
	defer a.finish(s, &err)

	value, err := s.settings.Get(ctx, key, typ)
	if err != nil {
		return "", err
	}
	return domain.FormatValue(value), nil
}

// Set assigns raw to key and stores the change. Unknown keys are registered with raw as their
// default and initial value.
func (a *App) Set(ctx context.Context, key, raw string, opts Options) (err error) {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	defer a.finish(s, &err)

	registered, err := s.settings.IsRegistered(ctx, key)
	if err != nil {
		return err
	}

	typ, err := a.valueType(ctx, s.settings, key, registered, opts.Type)
	if err != nil {
		return err
	}
	value, err := domain.ParseValue(raw, typ)
	if err != nil {
		return zerr.With(err, "key", key)
	}

	if registered {
		err = s.settings.Set(ctx, key, value, typ)
	} else {
		err = s.settings.Register(ctx, key, value, value, typ)
	}
	if err != nil {
		return err
	}
	return s.settings.Store(ctx)
}

// valueType picks the type raw input is parsed as: the explicit type name, otherwise the type of
// the stored value, otherwise string.
func (a *App) valueType(
	ctx context.Context,
	settings ports.ReadOnlySettings,
	key string,
	registered bool,
	name string,
) (reflect.Type, error) {
	if name != "" {
		return domain.ResolveType(name)
	}
	if !registered {
		return domain.TypeOf[string](), nil
	}
	current, err := settings.Get(ctx, key, domain.TypeOf[any]())
	if err != nil {
		return nil, err
	}
	if current == nil {
		return domain.TypeOf[string](), nil
	}
	return reflect.TypeOf(current), nil
}

// Unset removes key and stores the change.
func (a *App) Unset(ctx context.Context, key string, opts Options) (err error) {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	defer a.finish(s, &err)

	registered, err := s.settings.IsRegistered(ctx, key)
	if err != nil {
		return err
	}
	if !registered {
		return zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "nothing to unset"), "key", key)
	}
	if err := s.settings.Unregister(ctx, key); err != nil {
		return err
	}
	return s.settings.Store(ctx)
}

// MigrateUp applies the configured migrations up to and including target.
// An empty target applies every pending migration.
func (a *App) MigrateUp(ctx context.Context, target string, opts Options) (err error) {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	defer a.finish(s, &err)

	if err := s.runner.Initialize(ctx, s.settings); err != nil {
		return err
	}
	return s.runner.MigrateUpTo(ctx, s.settings, s.steps, target)
}

// MigrateDown rolls back applied migrations newer than target.
// An empty target rolls back every applied migration.
func (a *App) MigrateDown(ctx context.Context, target string, opts Options) (err error) {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	defer a.finish(s, &err)

	if err := s.runner.Initialize(ctx, s.settings); err != nil {
		return err
	}
	return s.runner.MigrateDown(ctx, s.settings, s.steps, target)
}

// Status lists the configured migrations in execution order.
func (a *App) Status(ctx context.Context, opts Options) (_ []migration.StepStatus, err error) {
	s, err := a.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer a.finish(s, &err)

	return s.runner.Status(ctx, s.settings, s.steps)
}

// Close stops the tracer provider. Spans started afterwards are dropped.
func (a *App) Close(ctx context.Context) error {
	if f, ok := a.tracer.(spanFlusher); ok {
		return f.Shutdown(ctx)
	}
	return nil
}

// MissingValue is reported by Watch while the watched key is not registered.
const MissingValue = "<unset>"

// Watch reports the value of key through emit, once at start and again whenever it changes.
// Only file backends can be watched. Watch blocks until ctx is done.
func (a *App) Watch(ctx context.Context, key string, opts Options, emit func(value string)) error {
	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	if cfg.Backend.Kind != domain.BackendFile {
		return zerr.With(domain.ErrWatchUnsupported, "backend", string(cfg.Backend.Kind))
	}

	paths := []string{cfg.Backend.Path}
	if paths[0] == "" {
		paths[0] = domain.DefaultSettingsPath()
	}
	if cfg.Defaults != "" {
		paths = append(paths, cfg.Defaults)
	}

	var (
		last     string
		reported bool
	)
	report := func() error {
		value, err := a.Get(ctx, key, opts)
		if errors.Is(err, domain.ErrKeyNotFound) {
			value, err = MissingValue, nil
		}
		if err != nil {
			return err
		}
		if !reported || value != last {
			emit(value)
			last, reported = value, true
		}
		return nil
	}

	if err := report(); err != nil {
		return err
	}
	return a.watcher.Watch(ctx, paths, func() {
		if err := report(); err != nil {
			a.logger.Warn("failed to reload " + key + ": " + err.Error())
		}
	})
}

func resolveType(name string) (reflect.Type, error) {
	if name == "" {
		return domain.TypeOf[any](), nil
	}
	return domain.ResolveType(name)
}
