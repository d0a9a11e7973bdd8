// Package backend opens the settings backend selected by the configuration.
package backend

import (
	"context"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.trai.ch/knob/internal/adapters/filestore"
	"go.trai.ch/knob/internal/adapters/memstore"
	"go.trai.ch/knob/internal/adapters/redisstore"
	"go.trai.ch/knob/internal/adapters/sqlstore"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Factory implements ports.BackendFactory for every supported backend kind.
type Factory struct{}

var _ ports.BackendFactory = (*Factory)(nil)

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

func noClose() error { return nil }

// Open connects to the backend described by cfg.
func (f *Factory) Open(ctx context.Context, cfg domain.BackendConfig) (ports.Backend, func() error, error) {
	switch cfg.Kind {
	case domain.BackendMemory:
		return memstore.NewStore(), noClose, nil
	case domain.BackendFile:
		path := cfg.Path
		if path == "" {
			path = domain.DefaultSettingsPath()
		}
		store, err := filestore.NewStore(path)
		if err != nil {
			return nil, nil, zerr.With(zerr.Wrap(domain.ErrBackendOpenFailed, err.Error()), "path", path)
		}
		return store, noClose, nil
	case domain.BackendSQL:
		driver := cfg.Driver
		if driver == "" {
			driver = "sqlite"
		}
		store, err := sqlstore.Open(ctx, driver, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case domain.BackendRedis:
		store, err := redisstore.NewStoreFromURL(ctx, cfg.URL, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, zerr.With(domain.ErrUnknownBackend, "kind", string(cfg.Kind))
	}
}
