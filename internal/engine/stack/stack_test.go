package stack_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knob/internal/adapters/logger"
	"go.trai.ch/knob/internal/adapters/memstore"
	"go.trai.ch/knob/internal/adapters/observer"
	"go.trai.ch/knob/internal/adapters/telemetry"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports/mocks"
	"go.trai.ch/knob/internal/engine/stack"
	"go.trai.ch/knob/internal/engine/writeback"
	"go.uber.org/mock/gomock"
)

var stringType = domain.TypeOf[string]()

func layer(t *testing.T, values map[string]string) *writeback.Cache {
	t.Helper()
	ctx := context.Background()
	backend := memstore.NewStore()
	for k, v := range values {
		require.NoError(t, backend.Register(ctx, k, v, v, stringType))
	}
	log := logger.New()
	log.SetOutput(io.Discard)
	return writeback.New(backend, log, telemetry.NewNoOpTracer(), observer.NewNoOpObserver())
}

func TestStack_FirstLayerWins(t *testing.T) {
	ctx := context.Background()
	top := layer(t, map[string]string{"theme": "dark"})
	bottom := layer(t, map[string]string{"theme": "light", "lang": "en"})
	s := stack.New(top, bottom)

	got, err := s.Get(ctx, "theme", stringType)
	require.NoError(t, err)
	assert.Equal(t, "dark", got)

	got, err = s.Get(ctx, "lang", stringType)
	require.NoError(t, err)
	assert.Equal(t, "en", got)

	_, err = s.Get(ctx, "missing", stringType)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	ok, err := s.IsRegistered(ctx, "lang")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsRegistered(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStack_ReadOnlyRejectsMutations(t *testing.T) {
	ctx := context.Background()
	s := stack.New(layer(t, map[string]string{"theme": "dark"}))

	require.ErrorIs(t, s.Set(ctx, "theme", "light", stringType), domain.ErrReadOnly)
	require.ErrorIs(t, s.Register(ctx, "x", "a", "a", stringType), domain.ErrReadOnly)
	require.ErrorIs(t, s.Unregister(ctx, "theme"), domain.ErrReadOnly)
	require.ErrorIs(t, s.Store(ctx), domain.ErrReadOnly)
	require.ErrorIs(t, s.Discard(ctx), domain.ErrReadOnly)
}

func TestStack_SetCopiesLowerSettingUp(t *testing.T) {
	ctx := context.Background()
	top := layer(t, nil)
	defaults := layer(t, map[string]string{"lang": "en"})
	s := stack.NewWritable(top, defaults)

	require.NoError(t, s.Set(ctx, "lang", "de", stringType))
	require.NoError(t, s.Store(ctx))

	got, err := top.Get(ctx, "lang", stringType)
	require.NoError(t, err)
	assert.Equal(t, "de", got)

	got, err = defaults.Get(ctx, "lang", stringType)
	require.NoError(t, err)
	assert.Equal(t, "en", got)

	// Removing the override exposes the lower layer again.
	require.NoError(t, s.Unregister(ctx, "lang"))
	got, err = s.Get(ctx, "lang", stringType)
	require.NoError(t, err)
	assert.Equal(t, "en", got)
}

func TestStack_SetUnknownKey(t *testing.T) {
	s := stack.NewWritable(layer(t, nil))
	err := s.Set(context.Background(), "nope", "x", stringType)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestStack_PropagatesLayerErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	broken := mocks.NewMockReadOnlySettings(ctrl)
	boom := errors.New("unreachable")
	broken.EXPECT().IsRegistered(gomock.Any(), "k").Return(false, boom).Times(2)

	s := stack.New(broken)
	_, err := s.Get(ctx, "k", stringType)
	require.ErrorIs(t, err, boom)

	_, err = s.IsRegistered(ctx, "k")
	require.ErrorIs(t, err, boom)
}
