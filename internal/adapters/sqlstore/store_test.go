package sqlstore_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knob/internal/adapters/sqlstore"
	"go.trai.ch/knob/internal/core/domain"
	_ "modernc.org/sqlite"
)

var (
	intType     = domain.TypeOf[int]()
	stringType  = domain.TypeOf[string]()
	appliedType = domain.TypeOf[domain.AppliedMigrations]()
)

// backends returns the SQL engines available to the test run. SQLite always runs; Postgres and
// MySQL run when KNOB_TEST_POSTGRES_DSN or KNOB_TEST_MYSQL_DSN is set.
func backends(t *testing.T) map[string]func(t *testing.T) *sqlstore.Store {
	t.Helper()
	out := map[string]func(t *testing.T) *sqlstore.Store{
		"sqlite": func(t *testing.T) *sqlstore.Store {
			return open(t, "sqlite", filepath.Join(t.TempDir(), "knob.db"), "knob_settings")
		},
	}
	if dsn := os.Getenv("KNOB_TEST_POSTGRES_DSN"); dsn != "" {
		out["pgx"] = func(t *testing.T) *sqlstore.Store {
			return open(t, "pgx", dsn, fmt.Sprintf("knob_test_%d", time.Now().UnixNano()))
		}
	}
	if dsn := os.Getenv("KNOB_TEST_MYSQL_DSN"); dsn != "" {
		out["mysql"] = func(t *testing.T) *sqlstore.Store {
			return open(t, "mysql", dsn, fmt.Sprintf("knob_test_%d", time.Now().UnixNano()))
		}
	}
	return out
}

func open(t *testing.T, driver, dsn, table string) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), driver, dsn, table)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_WritesBecomeDurableOnCommit(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			require.NoError(t, s.Register(ctx, "retries", 3, 5, intType))
			require.NoError(t, s.Register(ctx, domain.AppliedMigrationsKey,
				domain.AppliedMigrations{}, domain.AppliedMigrations{"": {"a"}}, appliedType))

			// Reads see the open transaction.
			got, err := s.Get(ctx, "retries", intType)
			require.NoError(t, err)
			assert.Equal(t, 5, got)

			require.NoError(t, s.Commit(ctx))

			require.NoError(t, s.Set(ctx, "retries", 7, intType))
			require.NoError(t, s.Commit(ctx))

			got, err = s.Get(ctx, "retries", intType)
			require.NoError(t, err)
			assert.Equal(t, 7, got)

			got, err = s.Get(ctx, domain.AppliedMigrationsKey, appliedType)
			require.NoError(t, err)
			assert.Equal(t, domain.AppliedMigrations{"": {"a"}}, got)

			require.NoError(t, s.Unregister(ctx, "retries"))
			require.NoError(t, s.Unregister(ctx, "retries"))
			require.NoError(t, s.Commit(ctx))

			ok, err := s.IsRegistered(ctx, "retries")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_DiscardRollsBack(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			require.NoError(t, s.Register(ctx, "kept", "a", "a", stringType))
			require.NoError(t, s.Commit(ctx))

			require.NoError(t, s.Set(ctx, "kept", "b", stringType))
			require.NoError(t, s.Register(ctx, "dropped", "x", "x", stringType))
			require.NoError(t, s.Discard(ctx))
			require.NoError(t, s.Discard(ctx), "discard without transaction is a no-op")

			got, err := s.Get(ctx, "kept", stringType)
			require.NoError(t, err)
			assert.Equal(t, "a", got)

			ok, err := s.IsRegistered(ctx, "dropped")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_Errors(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx, "missing", intType)
			require.ErrorIs(t, err, domain.ErrKeyNotFound)
			require.ErrorIs(t, s.Set(ctx, "missing", 1, intType), domain.ErrKeyNotFound)

			require.NoError(t, s.Register(ctx, "n", 1, 1, intType))
			_, err = s.Get(ctx, "n", stringType)
			require.ErrorIs(t, err, domain.ErrTypeMismatch)
			require.ErrorIs(t, s.Set(ctx, "n", "one", stringType), domain.ErrTypeMismatch)
		})
	}
}

func TestStore_PersistsAcrossConnections(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "knob.db")

	first := open(t, "sqlite", path, "")
	require.NoError(t, first.Register(ctx, "theme", "light", "dark", stringType))
	require.NoError(t, first.Commit(ctx))
	require.NoError(t, first.Close())

	second := open(t, "sqlite", path, "")
	got, err := second.Get(ctx, "theme", stringType)
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestNew_RejectsBadConfiguration(t *testing.T) {
	_, err := sqlstore.New(nil, "oracle", "settings")
	require.ErrorIs(t, err, domain.ErrUnknownBackend)

	_, err = sqlstore.New(nil, "sqlite", "settings; DROP TABLE users")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestStore_SequentialCommitPolicy(t *testing.T) {
	s, err := sqlstore.New(nil, "sqlite", "")
	require.NoError(t, err)
	assert.Equal(t, domain.Concurrency{}, s.Concurrency())
}
