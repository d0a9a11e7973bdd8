// Package observer implements ports.Observer with Prometheus metrics and structured logs.
package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// PrometheusObserver implements ports.Observer using Prometheus metrics.
// All metrics are prefixed with "{namespace}_".
type PrometheusObserver struct {
	gatherer prometheus.Gatherer

	cacheLookups      *prometheus.CounterVec
	commitDuration    *prometheus.HistogramVec
	commitKeys        *prometheus.CounterVec
	migrations        *prometheus.CounterVec
	migrationDuration *prometheus.HistogramVec
}

var _ ports.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates an observer registering its metrics in a fresh registry.
func NewPrometheusObserver(namespace string) *PrometheusObserver {
	registry := prometheus.NewRegistry()
	return NewPrometheusObserverWithRegistry(namespace, registry, registry)
}

// NewPrometheusObserverWithRegistry creates an observer registering its metrics with registerer.
// gatherer is used by WriteTextfile.
func NewPrometheusObserverWithRegistry(
	namespace string,
	registerer prometheus.Registerer,
	gatherer prometheus.Gatherer,
) *PrometheusObserver {
	if namespace == "" {
		namespace = "knob"
	}

	o := &PrometheusObserver{
		gatherer: gatherer,
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of settings reads served by the write-back cache",
			},
			[]string{"result"},
		),
		commitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "commit_duration_seconds",
				Help:      "Duration of storing pending settings changes in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		commitKeys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commit_keys_total",
				Help:      "Total number of settings keys submitted to the backend per commit phase",
			},
			[]string{"phase"},
		),
		migrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "migrations_total",
				Help:      "Total number of executed migration steps",
			},
			[]string{"direction", "status"},
		),
		migrationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "migration_duration_seconds",
				Help:      "Duration of migration steps in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"direction"},
		),
	}

	registerer.MustRegister(
		o.cacheLookups,
		o.commitDuration,
		o.commitKeys,
		o.migrations,
		o.migrationDuration,
	)
	return o
}

// OnCacheLookup counts a read by result: hit, miss or error.
func (o *PrometheusObserver) OnCacheLookup(_ context.Context, event domain.CacheLookupEvent) {
	result := "miss"
	switch {
	case event.Error != nil:
		result = "error"
	case event.Hit:
		result = "hit"
	}
	o.cacheLookups.WithLabelValues(result).Inc()
}

// OnCommit records the duration and size of a store.
func (o *PrometheusObserver) OnCommit(_ context.Context, event domain.CommitEvent) {
	o.commitDuration.WithLabelValues(status(event.Error)).Observe(event.Duration.Seconds())
	o.commitKeys.WithLabelValues(string(domain.PhaseDelete)).Add(float64(event.Deleted))
	o.commitKeys.WithLabelValues(string(domain.PhaseInsert)).Add(float64(event.Inserted))
	o.commitKeys.WithLabelValues(string(domain.PhaseUpdate)).Add(float64(event.Updated))
}

// OnMigration records an executed migration step.
func (o *PrometheusObserver) OnMigration(_ context.Context, event domain.MigrationEvent) {
	direction := string(event.Direction)
	o.migrations.WithLabelValues(direction, status(event.Error)).Inc()
	o.migrationDuration.WithLabelValues(direction).Observe(event.Duration.Seconds())
}

// WriteTextfile writes all gathered metrics to path in the Prometheus text format.
func (o *PrometheusObserver) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, o.gatherer); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics textfile"), "path", path)
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
