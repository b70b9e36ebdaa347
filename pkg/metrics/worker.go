package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BatchMetrics records certificate batch outcomes.
type BatchMetrics struct {
	duration *prometheus.HistogramVec
	issued   *prometheus.CounterVec
	failed   *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

// NewBatchMetrics registers the batch metrics on the provided registerer.
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	if reg == nil {
		return &BatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "certificate_batch_duration_seconds",
		Help:    "Duration of certificate batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificates_issued_total",
		Help: "Certificates rendered and dispatched successfully.",
	}, []string{"event"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificates_failed_total",
		Help: "Recipients whose certificate attempt failed.",
	}, []string{"event"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificates_skipped_total",
		Help: "Recipients skipped because a prior run already succeeded.",
	}, []string{"event"})
	reg.MustRegister(duration, issued, failed, skipped)
	return &BatchMetrics{
		duration: duration,
		issued:   issued,
		failed:   failed,
		skipped:  skipped,
	}
}

// ObserveDuration records the duration of one batch for the named event.
func (b *BatchMetrics) ObserveDuration(event string, duration time.Duration) {
	if b == nil || b.duration == nil {
		return
	}
	b.duration.WithLabelValues(normalizeLabel(event)).Observe(duration.Seconds())
}

// IncIssued increments the issued counter for the named event.
func (b *BatchMetrics) IncIssued(event string) {
	if b == nil || b.issued == nil {
		return
	}
	b.issued.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncFailed increments the failure counter for the named event.
func (b *BatchMetrics) IncFailed(event string) {
	if b == nil || b.failed == nil {
		return
	}
	b.failed.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncSkipped increments the skipped counter for the named event.
func (b *BatchMetrics) IncSkipped(event string) {
	if b == nil || b.skipped == nil {
		return
	}
	b.skipped.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(event string) string {
	if event == "" {
		return "unknown"
	}
	return event
}
