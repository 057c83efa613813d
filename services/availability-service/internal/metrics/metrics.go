package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for availability resolution. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Queries         *prometheus.CounterVec
	Exclusions      *prometheus.CounterVec
	LanguageFilter  *prometheus.CounterVec
	SnapshotLatency prometheus.Histogram
	EvaluateLatency prometheus.Histogram
	CacheLookups    *prometheus.CounterVec
}

// New registers the availability metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "babs_availability_queries_total",
			Help: "Availability resolutions by outcome",
		}, []string{"outcome"}), // outcome: "ok", "invalid_query", "unavailable"

		Exclusions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "babs_availability_exclusions_total",
			Help: "Registrars excluded from availability results by reason",
		}, []string{"reason"}),

		LanguageFilter: f.NewCounterVec(prometheus.CounterOpts{
			Name: "babs_availability_language_filter_total",
			Help: "Resolutions by origin of the language requirement",
		}, []string{"source"}),

		SnapshotLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "babs_availability_snapshot_duration_seconds",
			Help:    "Duration of loading the registrar snapshot",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "babs_availability_evaluate_duration_seconds",
			Help:    "Duration of evaluating a loaded snapshot",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "babs_availability_cache_lookups_total",
			Help: "Snapshot cache lookups by kind and result",
		}, []string{"kind", "result"}), // result: "hit", "miss", "error"
	}
}

func (m *Metrics) IncQuery(outcome string) {
	if m != nil {
		m.Queries.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AddExclusions(reason string, n int) {
	if m != nil && n > 0 {
		m.Exclusions.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) IncLanguageFilter(source string) {
	if m != nil {
		m.LanguageFilter.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObserveSnapshotLatency(d time.Duration) {
	if m != nil {
		m.SnapshotLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncCacheLookup(kind, result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(kind, result).Inc()
	}
}
