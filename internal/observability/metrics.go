package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the simulator. Components take a
// *Metrics and nil-guard every use, so tests can run without a registry.
type Metrics struct {
	// --- Core ---
	VaultsOpened      prometheus.Counter
	PriceUpdates      prometheus.Counter
	LiquidationsTotal prometheus.Counter
	SweepDuration     prometheus.Histogram
	OpenVaults        prometheus.Gauge

	// --- Accounting ---
	SnapshotsRecorded prometheus.Counter
	AggregateRatio    prometheus.Gauge
	TotalCollateral   prometheus.Gauge
	TotalLiability    prometheus.Gauge

	// --- Ingestion ---
	FeedTicks       *prometheus.CounterVec
	PublishFailures prometheus.Counter

	// --- Server ---
	StreamClients prometheus.Gauge
}

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics() *Metrics {
	sweepBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005,
	}

	return &Metrics{
		VaultsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_vaults_opened_total",
			Help: "Vaults opened in the registry",
		}),
		PriceUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_price_updates_total",
			Help: "Price updates applied by the liquidation engine",
		}),
		LiquidationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_liquidations_total",
			Help: "Vaults removed by liquidation sweeps",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_sweep_duration_seconds",
			Help:    "Time for one price update plus liquidation sweep",
			Buckets: sweepBuckets,
		}),
		OpenVaults: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_open_vaults",
			Help: "Vaults currently open",
		}),

		SnapshotsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_snapshots_recorded_total",
			Help: "System snapshots appended to the history",
		}),
		AggregateRatio: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_aggregate_ratio",
			Help: "System collateralization ratio at the last snapshot (+Inf when no liability)",
		}),
		TotalCollateral: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_total_collateral",
			Help: "Total locked collateral at the last snapshot",
		}),
		TotalLiability: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_total_liability",
			Help: "Total outstanding liability at the last snapshot",
		}),

		FeedTicks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_feed_ticks_total",
			Help: "Price ticks received from the feed, by outcome",
		}, []string{"result"}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_publish_failures_total",
			Help: "Outbound event publishes that failed",
		}),

		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_stream_clients",
			Help: "Connected websocket stream clients",
		}),
	}
}
