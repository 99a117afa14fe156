// Package metrics exposes Prometheus metrics and the /healthz probe for
// the tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the tracker.
type Metrics struct {
	CyclesTotal      prometheus.Counter
	CycleErrors      *prometheus.CounterVec // labels: stage
	CycleDuration    prometheus.Histogram
	LastCycleUnix    prometheus.Gauge
	TradesIngested   *prometheus.CounterVec // labels: action
	DuplicateSkips   prometheus.Counter
	UnclassifiedSkip prometheus.Counter
	EnrichFailures   prometheus.Counter

	// Ledger state
	RealizedPnLBase prometheus.Gauge
	OpenPositions   prometheus.Gauge
	WinRate         prometheus.Gauge
	LedgerSize      prometheus.Gauge

	// Upstream API
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint, status

	// Outbound
	RedisCircuitState   prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitTrips   prometheus.Counter
	RedisBufferedWrites prometheus.Counter
	FeedClients         prometheus.Gauge
	BusDrops            *prometheus.CounterVec // labels: subscriber
	NotifyErrors        prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_cycles_total",
			Help: "Polling cycles run",
		}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_cycle_errors_total",
			Help: "Cycle failures by stage (fetch, ingest, journal, export, publish)",
		}, []string{"stage"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_cycle_duration_seconds",
			Help:    "Wall time of one polling cycle",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		LastCycleUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_last_cycle_timestamp_seconds",
			Help: "Unix time the last cycle finished",
		}),
		TradesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_trades_ingested_total",
			Help: "Ledger entries recorded, by action",
		}, []string{"action"}),
		DuplicateSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_duplicate_skips_total",
			Help: "Swaps skipped because their tx id was already seen",
		}),
		UnclassifiedSkip: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_unclassified_skips_total",
			Help: "Swaps that touch the base asset on neither or both legs",
		}),
		EnrichFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_enrichment_failures_total",
			Help: "Token snapshot lookups that failed",
		}),

		RealizedPnLBase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_realized_pnl_base",
			Help: "Sum of realized P/L in base units",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_open_positions",
			Help: "Assets with a positive held quantity",
		}),
		WinRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_win_rate_pct",
			Help: "Winning SELLs as a percentage of all SELLs",
		}),
		LedgerSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_ledger_records",
			Help: "Entries in the ledger",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_upstream_request_duration_seconds",
			Help:    "Data API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),

		RedisCircuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisBufferedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_redis_buffered_writes_total",
			Help: "Trade events buffered while the Redis circuit was open",
		}),
		FeedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_feed_clients",
			Help: "Connected websocket clients",
		}),
		BusDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_bus_drops_total",
			Help: "Trade events dropped by the fan-out bus per subscriber",
		}, []string{"subscriber"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_notify_errors_total",
			Help: "Alert deliveries that failed",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleErrors,
		m.CycleDuration,
		m.LastCycleUnix,
		m.TradesIngested,
		m.DuplicateSkips,
		m.UnclassifiedSkip,
		m.EnrichFailures,
		m.RealizedPnLBase,
		m.OpenPositions,
		m.WinRate,
		m.LedgerSize,
		m.UpstreamDuration,
		m.RedisCircuitState,
		m.RedisCircuitTrips,
		m.RedisBufferedWrites,
		m.FeedClients,
		m.BusDrops,
		m.NotifyErrors,
	)
	return m
}
