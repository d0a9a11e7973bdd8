package redisstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knob/internal/adapters/redisstore"
	"go.trai.ch/knob/internal/core/domain"
)

var (
	intType    = domain.TypeOf[int]()
	stringType = domain.TypeOf[string]()
)

// offline returns a store whose client is never dialed as long as only queued keys are touched.
func offline(t *testing.T) *redisstore.Store {
	t.Helper()
	s := redisstore.NewStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_ReadsSeeQueuedWrites(t *testing.T) {
	ctx := context.Background()
	s := offline(t)

	require.NoError(t, s.Register(ctx, "retries", 3, 5, intType))
	got, err := s.Get(ctx, "retries", intType)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	require.NoError(t, s.Set(ctx, "retries", 6, intType))
	got, err = s.Get(ctx, "retries", intType)
	require.NoError(t, err)
	assert.Equal(t, 6, got)

	require.ErrorIs(t, s.Set(ctx, "retries", "six", stringType), domain.ErrTypeMismatch)

	require.NoError(t, s.Unregister(ctx, "retries"))
	ok, err := s.IsRegistered(ctx, "retries")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Get(ctx, "retries", intType)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	// Nothing queued remains after Discard, and an empty Commit sends nothing.
	require.NoError(t, s.Discard(ctx))
	require.NoError(t, s.Commit(ctx))
	assert.Equal(t, domain.FullConcurrency, s.Concurrency())
}

func live(t *testing.T) *redisstore.Store {
	t.Helper()
	url := os.Getenv("KNOB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("KNOB_TEST_REDIS_URL not set")
	}
	prefix := fmt.Sprintf("knobtest:%d:", time.Now().UnixNano())
	s, err := redisstore.NewStoreFromURL(context.Background(), url, prefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CommitAndReopen(t *testing.T) {
	ctx := context.Background()
	s := live(t)

	require.NoError(t, s.Register(ctx, "theme", "light", "dark", stringType))
	require.NoError(t, s.Register(ctx, domain.AppliedMigrationsKey,
		domain.AppliedMigrations{}, domain.AppliedMigrations{"": {"a"}}, domain.TypeOf[domain.AppliedMigrations]()))
	require.NoError(t, s.Commit(ctx))

	require.NoError(t, s.Set(ctx, "theme", "blue", stringType))
	require.NoError(t, s.Discard(ctx))

	got, err := s.Get(ctx, "theme", stringType)
	require.NoError(t, err)
	assert.Equal(t, "dark", got)

	got, err = s.Get(ctx, domain.AppliedMigrationsKey, domain.TypeOf[domain.AppliedMigrations]())
	require.NoError(t, err)
	assert.Equal(t, domain.AppliedMigrations{"": {"a"}}, got)

	require.NoError(t, s.Unregister(ctx, "theme"))
	require.NoError(t, s.Unregister(ctx, domain.AppliedMigrationsKey))
	require.NoError(t, s.Commit(ctx))

	ok, err := s.IsRegistered(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}
