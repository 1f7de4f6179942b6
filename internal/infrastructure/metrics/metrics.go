package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the sync core.
type Metrics struct {
	// Mutation metrics
	MutationsTotal *prometheus.CounterVec
	DayEndsTotal   prometheus.Counter

	// Relay metrics
	PushesTotal   *prometheus.CounterVec
	PushDuration  prometheus.Histogram
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram

	// Reconciliation metrics
	TicksTotal       *prometheus.CounterVec
	SnapshotsAdopted prometheus.Counter

	// Archive metrics
	ArchiveRecords prometheus.Gauge

	// Exchange rate metrics
	RateRefreshTotal *prometheus.CounterVec
}

// New creates and registers all metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_mutations_total",
				Help: "Total snapshot mutations by kind",
			},
			[]string{"kind"},
		),
		DayEndsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cashbook_day_ends_total",
			Help: "Total day-end operations",
		}),

		PushesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_relay_pushes_total",
				Help: "Total relay pushes by status",
			},
			[]string{"status"},
		),
		PushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashbook_relay_push_duration_seconds",
			Help:    "Duration of relay push operations",
			Buckets: prometheus.DefBuckets,
		}),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_relay_fetches_total",
				Help: "Total relay fetches by status",
			},
			[]string{"status"},
		),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashbook_relay_fetch_duration_seconds",
			Help:    "Duration of relay fetch operations",
			Buckets: prometheus.DefBuckets,
		}),

		TicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_reconcile_ticks_total",
				Help: "Total reconciliation ticks by outcome",
			},
			[]string{"outcome"},
		),
		SnapshotsAdopted: factory.NewCounter(prometheus.CounterOpts{
			Name: "cashbook_snapshots_adopted_total",
			Help: "Total remote snapshots adopted as local state",
		}),

		ArchiveRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cashbook_archive_records",
			Help: "Current number of archived day-end snapshots",
		}),

		RateRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_rate_refresh_total",
				Help: "Total exchange rate refresh attempts by status",
			},
			[]string{"status"},
		),
	}
}
