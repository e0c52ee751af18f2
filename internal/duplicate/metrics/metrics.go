package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the duplicate detection collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Decisions        *prometheus.CounterVec
	CheckDuration    prometheus.Histogram
	MatchesPerCheck  prometheus.Histogram
	OverrideRequests *prometheus.CounterVec
	IssuanceOutcomes *prometheus.CounterVec
	StoreFailures    prometheus.Counter
	LockContention   prometheus.Counter
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certguard_duplicate_decisions_total",
			Help: "Duplicate checks by resulting action",
		}, []string{"action"}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certguard_duplicate_check_duration_seconds",
			Help:    "Latency of a full duplicate check across all enabled rules",
			Buckets: prometheus.DefBuckets,
		}),
		MatchesPerCheck: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certguard_duplicate_matches_per_check",
			Help:    "Number of matches returned by a duplicate check",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		OverrideRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certguard_override_requests_total",
			Help: "Override request transitions by resulting status",
		}, []string{"status"}),
		IssuanceOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certguard_issuance_outcomes_total",
			Help: "Issuance gate outcomes",
		}, []string{"outcome"}),
		StoreFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "certguard_duplicate_store_failures_total",
			Help: "Checks aborted because the certificate store failed",
		}),
		LockContention: factory.NewCounter(prometheus.CounterOpts{
			Name: "certguard_issuance_lock_contention_total",
			Help: "Issuance attempts rejected because the recipient lock was held",
		}),
	}
}

func (m *Metrics) ObserveDecision(action string, matches int, seconds float64) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(action).Inc()
	m.MatchesPerCheck.Observe(float64(matches))
	m.CheckDuration.Observe(seconds)
}

func (m *Metrics) IncOverride(status string) {
	if m == nil {
		return
	}
	m.OverrideRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) IncIssuance(outcome string) {
	if m == nil {
		return
	}
	m.IssuanceOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncStoreFailure() {
	if m == nil {
		return
	}
	m.StoreFailures.Inc()
}

func (m *Metrics) IncLockContention() {
	if m == nil {
		return
	}
	m.LockContention.Inc()
}
