package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of the API process.
type Metrics struct {
	gatherer prometheus.Gatherer

	workerRuns      *prometheus.CounterVec
	workerProcessed *prometheus.CounterVec
	workerDuration  *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	matchesWritten  *prometheus.CounterVec
	duplicateVotes  *prometheus.CounterVec
	mergedMatches   prometheus.Counter
}

// NewMetrics registers the collectors on reg. A nil reg uses a private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		workerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otr_worker_runs_total",
			Help: "Worker iterations by outcome.",
		}, []string{"worker", "outcome"}),
		workerProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otr_worker_items_processed_total",
			Help: "Items persisted by worker iterations.",
		}, []string{"worker"}),
		workerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "otr_worker_run_duration_seconds",
			Help:    "Duration of worker iterations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"worker"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otr_match_submissions_total",
			Help: "Accepted match batch submissions.",
		}, []string{"verified"}),
		matchesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otr_matches_written_total",
			Help: "Matches written by submissions.",
		}, []string{"kind"}),
		duplicateVotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otr_duplicate_verdicts_total",
			Help: "Duplicate verdicts recorded by verifiers.",
		}, []string{"confirmed"}),
		mergedMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otr_matches_merged_total",
			Help: "Matches absorbed into a root match.",
		}),
	}

	reg.MustRegister(
		m.workerRuns,
		m.workerProcessed,
		m.workerDuration,
		m.submissions,
		m.matchesWritten,
		m.duplicateVotes,
		m.mergedMatches,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRun(worker string, processed int, err error, took time.Duration) {
	outcome := "idle"
	switch {
	case err != nil:
		outcome = "error"
	case processed > 0:
		outcome = "processed"
	}
	m.workerRuns.WithLabelValues(worker, outcome).Inc()
	m.workerProcessed.WithLabelValues(worker).Add(float64(processed))
	m.workerDuration.WithLabelValues(worker).Observe(took.Seconds())
}

func (m *Metrics) ObserveSubmission(verified bool, inserted, promoted int) {
	m.submissions.WithLabelValues(strconv.FormatBool(verified)).Inc()
	m.matchesWritten.WithLabelValues("inserted").Add(float64(inserted))
	m.matchesWritten.WithLabelValues("promoted").Add(float64(promoted))
}

func (m *Metrics) ObserveDuplicateVerdict(confirmed bool, merged int) {
	m.duplicateVotes.WithLabelValues(strconv.FormatBool(confirmed)).Inc()
	m.mergedMatches.Add(float64(merged))
}
