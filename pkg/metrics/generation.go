package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics tracks generation jobs from submission to terminal state.
type GenerationMetrics struct {
	submitted  *prometheus.CounterVec
	finished   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	thumbnails *prometheus.CounterVec
	retries    *prometheus.CounterVec
	signing    prometheus.Counter
}

func NewGenerationMetrics(reg prometheus.Registerer) *GenerationMetrics {
	if reg == nil {
		return &GenerationMetrics{}
	}
	m := &GenerationMetrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genmedia_generation_jobs_submitted_total",
			Help: "Generation jobs accepted by the API.",
		}, []string{"kind", "model"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genmedia_generation_jobs_finished_total",
			Help: "Generation jobs that reached a terminal status.",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "genmedia_generation_job_duration_seconds",
			Help:    "Wall time from job start to terminal write.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 900},
		}, []string{"kind", "status"}),
		thumbnails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genmedia_thumbnail_results_total",
			Help: "Thumbnail attempts by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genmedia_remote_retries_total",
			Help: "Retried calls to the remote generation service.",
		}, []string{"operation"}),
		signing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genmedia_signed_url_failures_total",
			Help: "Signed URL requests that failed during enrichment.",
		}),
	}
	reg.MustRegister(m.submitted, m.finished, m.duration, m.thumbnails, m.retries, m.signing)
	return m
}

func (m *GenerationMetrics) IncSubmitted(kind, model string) {
	if m == nil || m.submitted == nil {
		return
	}
	m.submitted.WithLabelValues(normalizeLabel(kind), normalizeLabel(model)).Inc()
}

// ObserveFinished records the terminal status and elapsed time of a job.
func (m *GenerationMetrics) ObserveFinished(kind, status string, elapsed time.Duration) {
	if m == nil || m.finished == nil {
		return
	}
	m.finished.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Inc()
	m.duration.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Observe(elapsed.Seconds())
}

func (m *GenerationMetrics) IncThumbnail(ok bool) {
	if m == nil || m.thumbnails == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.thumbnails.WithLabelValues(outcome).Inc()
}

func (m *GenerationMetrics) IncRetry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *GenerationMetrics) IncSigningFailure() {
	if m == nil || m.signing == nil {
		return
	}
	m.signing.Inc()
}
