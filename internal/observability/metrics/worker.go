package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics tracks queued check jobs consumed from NATS.
type WorkerMetrics struct {
	registry *prometheus.Registry

	jobs        *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	running     prometheus.Gauge
	queueLag    prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry, factory := newRegistry(service)
	return &WorkerMetrics{
		registry: registry,
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Check jobs by outcome.",
		}, []string{"status"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Check job duration in seconds by outcome.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"status"}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "jobs_in_flight",
			Help:      "Check jobs currently running.",
		}),
		queueLag: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between job submission and the start of processing.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2.5, 10),
		}),
	}
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return handlerFor(m.registry)
}

func (m *WorkerMetrics) StartJob() {
	m.running.Inc()
}

// FinishJob labels the job completed, timeout or failed.
func (m *WorkerMetrics) FinishJob(duration time.Duration, err error) {
	m.running.Dec()
	status := "completed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "failed"
	}
	m.jobs.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag >= 0 {
		m.queueLag.Observe(lag.Seconds())
	}
}
