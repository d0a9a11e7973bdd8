package observer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knob/internal/adapters/observer"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestPrometheusObserver_CacheLookups(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs := observer.NewPrometheusObserverWithRegistry("test", registry, registry)
	ctx := context.Background()

	obs.OnCacheLookup(ctx, domain.CacheLookupEvent{Key: "a", Hit: true})
	obs.OnCacheLookup(ctx, domain.CacheLookupEvent{Key: "a", Hit: true})
	obs.OnCacheLookup(ctx, domain.CacheLookupEvent{Key: "b"})
	obs.OnCacheLookup(ctx, domain.CacheLookupEvent{Key: "c", Error: errors.New("down")})

	count, err := testutil.GatherAndCount(registry, "test_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	families, err := registry.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_cache_lookups_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			values[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 2, values["hit"], 0)
	assert.InDelta(t, 1, values["miss"], 0)
	assert.InDelta(t, 1, values["error"], 0)
}

func TestPrometheusObserver_CommitAndMigration(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs := observer.NewPrometheusObserverWithRegistry("test", registry, registry)
	ctx := context.Background()

	obs.OnCommit(ctx, domain.CommitEvent{Deleted: 1, Inserted: 2, Updated: 3, Duration: time.Millisecond})
	obs.OnMigration(ctx, domain.MigrationEvent{Key: "m1", Direction: domain.DirectionUp, Duration: time.Millisecond})
	obs.OnMigration(ctx, domain.MigrationEvent{
		Key: "m2", Direction: domain.DirectionDown, Duration: time.Millisecond, Error: errors.New("x"),
	})

	count, err := testutil.GatherAndCount(registry, "test_commit_keys_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(registry, "test_migrations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(registry, "test_commit_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusObserver_WriteTextfile(t *testing.T) {
	obs := observer.NewPrometheusObserver("knob")
	obs.OnCacheLookup(context.Background(), domain.CacheLookupEvent{Key: "a"})

	path := filepath.Join(t.TempDir(), "knob.prom")
	require.NoError(t, obs.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `knob_cache_lookups_total{result="miss"} 1`)
}

func TestLogObserver(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	obs := observer.NewLogObserver(log)
	ctx := context.Background()

	log.EXPECT().Info(gomock.Any()).Times(1)
	log.EXPECT().Warn(gomock.Any()).Times(2)

	obs.OnCacheLookup(ctx, domain.CacheLookupEvent{Key: "ignored"})
	obs.OnCommit(ctx, domain.CommitEvent{})
	obs.OnCommit(ctx, domain.CommitEvent{Error: errors.New("failed")})
	obs.OnMigration(ctx, domain.MigrationEvent{Key: "m1", SettingSet: "ui", Direction: domain.DirectionUp})
	obs.OnMigration(ctx, domain.MigrationEvent{Key: "m1", Direction: domain.DirectionDown, Error: errors.New("x")})
}

func TestMulti_ForwardsToAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockObserver(ctrl)
	second := mocks.NewMockObserver(ctrl)
	multi := observer.NewMulti(first, second)
	ctx := context.Background()

	lookup := domain.CacheLookupEvent{Key: "k"}
	commit := domain.CommitEvent{Updated: 1}
	migration := domain.MigrationEvent{Key: "m"}

	gomock.InOrder(
		first.EXPECT().OnCacheLookup(ctx, lookup),
		second.EXPECT().OnCacheLookup(ctx, lookup),
	)
	first.EXPECT().OnCommit(ctx, commit)
	second.EXPECT().OnCommit(ctx, commit)
	first.EXPECT().OnMigration(ctx, migration)
	second.EXPECT().OnMigration(ctx, migration)

	multi.OnCacheLookup(ctx, lookup)
	multi.OnCommit(ctx, commit)
	multi.OnMigration(ctx, migration)

	// Neither mock exports metrics.
	require.NoError(t, multi.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
}
