package migration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knob/internal/adapters/memstore"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/knob/internal/engine/migration"
)

func TestOpStep_UpAndDown(t *testing.T) {
	ctx := context.Background()
	backend := memstore.NewStore()
	store := newStore(backend)
	runner := newRunner(nil)

	require.NoError(t, backend.Register(ctx, "timeout", "5s", "5s", stringType))
	require.NoError(t, backend.Register(ctx, "legacy", true, true, domain.TypeOf[bool]()))
	require.NoError(t, backend.Register(ctx, "colour", "red", "blue", stringType))

	step, err := migration.NewOpStep(domain.NewDescriptor("v2"),
		domain.OpSpec{Kind: domain.OpRegister, Key: "retries", Type: "int", Default: 3, Value: "5"},
		domain.OpSpec{Kind: domain.OpSet, Key: "timeout", Type: "string", Value: "10s", Previous: "5s"},
		domain.OpSpec{Kind: domain.OpRename, Key: "colour", To: "color"},
		domain.OpSpec{Kind: domain.OpUnregister, Key: "legacy", Type: "bool", Default: true, Previous: "true"},
	)
	require.NoError(t, err)

	require.NoError(t, runner.MigrateUp(ctx, store, []ports.Migration{step}))

	got, err := backend.Get(ctx, "retries", intType)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	def, _ := backend.Default("retries")
	assert.Equal(t, 3, def)

	got, err = backend.Get(ctx, "timeout", stringType)
	require.NoError(t, err)
	assert.Equal(t, "10s", got)

	got, err = backend.Get(ctx, "color", stringType)
	require.NoError(t, err)
	assert.Equal(t, "blue", got)

	for _, key := range []string{"colour", "legacy"} {
		registered, err := backend.IsRegistered(ctx, key)
		require.NoError(t, err)
		assert.False(t, registered, key)
	}

	require.NoError(t, runner.MigrateDown(ctx, store, []ports.Migration{step}, ""))

	for _, key := range []string{"retries", "color"} {
		registered, err := backend.IsRegistered(ctx, key)
		require.NoError(t, err)
		assert.False(t, registered, key)
	}
	got, err = backend.Get(ctx, "timeout", stringType)
	require.NoError(t, err)
	assert.Equal(t, "5s", got)
	got, err = backend.Get(ctx, "colour", stringType)
	require.NoError(t, err)
	assert.Equal(t, "blue", got)
	got, err = backend.Get(ctx, "legacy", domain.TypeOf[bool]())
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestOpStep_RenameKeepsDeclaredDefault(t *testing.T) {
	ctx := context.Background()
	backend := memstore.NewStore()
	store := newStore(backend)
	runner := newRunner(nil)

	require.NoError(t, backend.Register(ctx, "workers", 2, 8, intType))
	require.NoError(t, backend.Register(ctx, "colour", "red", "blue", stringType))

	step, err := migration.NewOpStep(domain.NewDescriptor("rename"),
		domain.OpSpec{Kind: domain.OpRename, Key: "workers", To: "pool.size", Default: "2"},
		domain.OpSpec{Kind: domain.OpRename, Key: "colour", To: "color"},
	)
	require.NoError(t, err)
	require.NoError(t, runner.MigrateUp(ctx, store, []ports.Migration{step}))

	got, err := backend.Get(ctx, "pool.size", intType)
	require.NoError(t, err)
	assert.Equal(t, 8, got)
	def, _ := backend.Default("pool.size")
	assert.Equal(t, 2, def)

	// Without a declared default the moved value becomes the default.
	def, _ = backend.Default("color")
	assert.Equal(t, "blue", def)

	require.NoError(t, runner.MigrateDown(ctx, store, []ports.Migration{step}, ""))
	def, _ = backend.Default("workers")
	assert.Equal(t, 2, def)
}

func TestOpStep_CoercesLooseValues(t *testing.T) {
	ctx := context.Background()
	backend := memstore.NewStore()
	store := newStore(backend)

	step, err := migration.NewOpStep(domain.NewDescriptor("coerce"),
		domain.OpSpec{Kind: domain.OpRegister, Key: "interval", Type: "duration", Default: "1m"},
		domain.OpSpec{Kind: domain.OpRegister, Key: "hosts", Type: "strings", Default: []any{"a", "b"}},
	)
	require.NoError(t, err)
	require.NoError(t, newRunner(nil).MigrateUp(ctx, store, []ports.Migration{step}))

	got, err := backend.Get(ctx, "interval", domain.TypeOf[time.Duration]())
	require.NoError(t, err)
	assert.Equal(t, time.Minute, got)

	got, err = backend.Get(ctx, "hosts", domain.TypeOf[[]string]())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestNewOpStep_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		desc    *domain.Descriptor
		spec    domain.OpSpec
		wantErr error
	}{
		{
			name:    "no descriptor",
			spec:    domain.OpSpec{Kind: domain.OpSet, Key: "k", Type: "int"},
			wantErr: domain.ErrMissingMigrationMetadata,
		},
		{
			name:    "unknown kind",
			desc:    domain.NewDescriptor("m"),
			spec:    domain.OpSpec{Kind: "explode", Key: "k", Type: "int"},
			wantErr: domain.ErrUnknownOperation,
		},
		{
			name:    "missing type",
			desc:    domain.NewDescriptor("m"),
			spec:    domain.OpSpec{Kind: domain.OpSet, Key: "k", Value: 1},
			wantErr: domain.ErrUnknownType,
		},
		{
			name:    "unknown type",
			desc:    domain.NewDescriptor("m"),
			spec:    domain.OpSpec{Kind: domain.OpSet, Key: "k", Type: "complex128", Value: 1},
			wantErr: domain.ErrUnknownType,
		},
		{
			name:    "bad value",
			desc:    domain.NewDescriptor("m"),
			spec:    domain.OpSpec{Kind: domain.OpSet, Key: "k", Type: "int", Value: "many"},
			wantErr: domain.ErrInvalidValue,
		},
		{
			name:    "rename without target",
			desc:    domain.NewDescriptor("m"),
			spec:    domain.OpSpec{Kind: domain.OpRename, Key: "k"},
			wantErr: domain.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := migration.NewOpStep(tt.desc, tt.spec)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpStep_DownWithoutPreviousIsIrreversible(t *testing.T) {
	ctx := context.Background()
	backend := memstore.NewStore()
	require.NoError(t, backend.Register(ctx, "mode", "a", "a", stringType))
	store := newStore(backend)
	runner := newRunner(nil)

	step, err := migration.NewOpStep(domain.NewDescriptor("set-mode"),
		domain.OpSpec{Kind: domain.OpSet, Key: "mode", Type: "string", Value: "b"},
	)
	require.NoError(t, err)
	require.NoError(t, runner.MigrateUp(ctx, store, []ports.Migration{step}))

	err = runner.MigrateDown(ctx, store, []ports.Migration{step}, "")
	require.ErrorIs(t, err, domain.ErrIrreversibleMigration)

	got, err := backend.Get(ctx, "mode", stringType)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestFromSpecs(t *testing.T) {
	steps, err := migration.FromSpecs([]domain.MigrationSpec{
		{Descriptor: domain.NewDescriptor("a"), Ops: []domain.OpSpec{{Kind: domain.OpUnregister, Key: "x"}}},
	})
	// Unregister needs a type even when it cannot be rolled back.
	require.ErrorIs(t, err, domain.ErrUnknownType)
	assert.Nil(t, steps)

	steps, err = migration.FromSpecs([]domain.MigrationSpec{
		{Descriptor: domain.NewDescriptor("a"), Ops: []domain.OpSpec{{Kind: domain.OpUnregister, Key: "x", Type: "int"}}},
		{Descriptor: domain.NewDescriptor("b", domain.RunsAfter("a"))},
	})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "b", steps[1].Descriptor().Key)
}
