package twopaco

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus instruments updated during a run.
type Metrics struct {
	// Records counts input records by pass and outcome.
	Records *prometheus.CounterVec

	// Windows counts k-mer windows processed by pass.
	Windows *prometheus.CounterVec

	// ReplacedSymbols counts input bytes outside ACGT replaced by A.
	ReplacedSymbols prometheus.Counter

	// Candidates counts distinct k-mers that passed the filter test.
	Candidates prometheus.Counter

	// Junctions counts emitted junctions.
	Junctions prometheus.Counter

	// PassDuration tracks the wall time of each pass.
	PassDuration *prometheus.HistogramVec

	// FilterFillRatio is the share of filter bits set after the first pass.
	FilterFillRatio prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg. A nil reg
// creates unregistered instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "twopaco_records_total",
			Help: "Input records by pass and outcome",
		}, []string{"pass", "outcome"}),

		Windows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "twopaco_windows_total",
			Help: "K-mer windows processed by pass",
		}, []string{"pass"}),

		ReplacedSymbols: factory.NewCounter(prometheus.CounterOpts{
			Name: "twopaco_replaced_symbols_total",
			Help: "Input symbols outside ACGT encoded as A",
		}),

		Candidates: factory.NewCounter(prometheus.CounterOpts{
			Name: "twopaco_candidates_total",
			Help: "Distinct candidate junctions found by the filter test",
		}),

		Junctions: factory.NewCounter(prometheus.CounterOpts{
			Name: "twopaco_junctions_total",
			Help: "Junctions confirmed by the exact check and emitted",
		}),

		PassDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "twopaco_pass_duration_seconds",
			Help:    "Wall time of each enumeration pass",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12), // 1ms to ~70min
		}, []string{"pass"}),

		FilterFillRatio: factory.NewGauge(prometheus.GaugeOpts{
			Name: "twopaco_filter_fill_ratio",
			Help: "Share of membership filter bits set after the fill pass",
		}),
	}
}
