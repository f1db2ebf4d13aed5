package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	JobsSubmitted prometheus.Counter

	// Item outcomes: succeeded, failed, canceled
	ItemsTotal *prometheus.CounterVec

	ExtractionDuration prometheus.Histogram
	WorkersBusy        prometheus.Gauge

	// Validation transitions by action: approve, reject, flag_for_review, edit_and_approve, re_ocr, auto_approve
	ValidationTransitions *prometheus.CounterVec
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		JobsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "biodata_jobs_submitted_total",
			Help: "Batch jobs accepted for processing",
		}),
		ItemsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "biodata_items_total",
			Help: "Batch items finished, by outcome",
		}, []string{"outcome"}),
		ExtractionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "biodata_extraction_duration_seconds",
			Help:    "Duration of extraction provider calls",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		WorkersBusy: f.NewGauge(prometheus.GaugeOpts{
			Name: "biodata_workers_busy",
			Help: "Pool workers currently processing an item",
		}),
		ValidationTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "biodata_validation_transitions_total",
			Help: "Validation state transitions applied, by action",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncJobsSubmitted() {
	if m != nil {
		m.JobsSubmitted.Inc()
	}
}

// IncItem records one finished item.
func (m *Metrics) IncItem(outcome string) {
	if m != nil {
		m.ItemsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m != nil {
		m.ExtractionDuration.Observe(d.Seconds())
	}
}

// WorkerBusy moves the busy gauge by delta (+1 on pickup, -1 on finish).
func (m *Metrics) WorkerBusy(delta float64) {
	if m != nil {
		m.WorkersBusy.Add(delta)
	}
}

// IncTransition records n applied transitions of action.
func (m *Metrics) IncTransition(action string, n int) {
	if m != nil && n > 0 {
		m.ValidationTransitions.WithLabelValues(action).Add(float64(n))
	}
}
