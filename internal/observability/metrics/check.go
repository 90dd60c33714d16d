package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// CheckMetrics implements the pipeline observer on a prometheus registry.
type CheckMetrics struct {
	service string

	checksTotal      *prometheus.CounterVec
	checkDuration    *prometheus.HistogramVec
	checksInFlight   prometheus.Gauge
	stageDuration    *prometheus.HistogramVec
	verdictsTotal    *prometheus.CounterVec
	strategyFailures *prometheus.CounterVec
	droppedCitations *prometheus.CounterVec
}

func NewCheckMetrics(service string, registerer prometheus.Registerer) *CheckMetrics {
	checksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papercheck",
			Subsystem: "pipeline",
			Name:      "checks_total",
			Help:      "Completed abstract checks by outcome.",
		},
		[]string{"service", "status"},
	)
	checkDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "papercheck",
			Subsystem: "pipeline",
			Name:      "check_duration_seconds",
			Help:      "Abstract check duration in seconds by outcome.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	checksInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "papercheck",
			Subsystem:   "pipeline",
			Name:        "checks_in_flight",
			Help:        "Number of abstract checks currently running.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "papercheck",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Per-statement pipeline stage duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "stage"},
	)
	verdictsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papercheck",
			Subsystem: "pipeline",
			Name:      "verdicts_total",
			Help:      "Statement verdicts by label and confidence.",
		},
		[]string{"service", "verdict", "confidence"},
	)
	strategyFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papercheck",
			Subsystem: "search",
			Name:      "strategy_failures_total",
			Help:      "Search strategy failures by strategy.",
		},
		[]string{"service", "strategy"},
	)
	droppedCitations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papercheck",
			Subsystem: "citations",
			Name:      "dropped_total",
			Help:      "Citations discarded for referencing ineligible documents or empty passages.",
		},
		[]string{"service"},
	)

	registerer.MustRegister(checksTotal, checkDuration, checksInFlight, stageDuration, verdictsTotal, strategyFailures, droppedCitations)

	return &CheckMetrics{
		service:          service,
		checksTotal:      checksTotal,
		checkDuration:    checkDuration,
		checksInFlight:   checksInFlight,
		stageDuration:    stageDuration,
		verdictsTotal:    verdictsTotal,
		strategyFailures: strategyFailures,
		droppedCitations: droppedCitations,
	}
}

func (m *CheckMetrics) StartCheck() {
	m.checksInFlight.Inc()
}

func (m *CheckMetrics) FinishCheck(duration time.Duration, err error) {
	m.checksInFlight.Dec()
	status := checkStatus(err)
	m.checksTotal.WithLabelValues(m.service, status).Inc()
	m.checkDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *CheckMetrics) ObserveStage(stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}

func (m *CheckMetrics) ObserveVerdict(v domain.Verdict) {
	m.verdictsTotal.WithLabelValues(m.service, string(v.Verdict), string(v.Confidence)).Inc()
}

func (m *CheckMetrics) ObserveStrategyFailure(strategy domain.SearchStrategy) {
	m.strategyFailures.WithLabelValues(m.service, string(strategy)).Inc()
}

func (m *CheckMetrics) ObserveDroppedCitations(n int) {
	if n <= 0 {
		return
	}
	m.droppedCitations.WithLabelValues(m.service).Add(float64(n))
}

func checkStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrValidation):
		return "validation_error"
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrResourceUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
