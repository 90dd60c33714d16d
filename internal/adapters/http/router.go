package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kirillkom/paper-checker/internal/config"
	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/observability/metrics"
)

const (
	defaultBackpressure   = 250 * time.Millisecond
	defaultMaxUploadBytes = 25 << 20
	readinessTimeout      = 10 * time.Second
)

// RouterDeps are the inbound ports the API serves. Jobs, PDF, Exporter and
// Metrics are optional; their routes answer 503 when unset.
type RouterDeps struct {
	Checker  ports.PaperChecker
	Reader   ports.PaperCheckReader
	Jobs     ports.JobSubmitter
	PDF      ports.AbstractExtractor
	Exporter ports.ResultExporter
	Metrics  *metrics.HTTPServerMetrics
	// Breakers reports circuit breaker states for /readyz; optional.
	Breakers func() map[string]string
}

type Router struct {
	deps      RouterDeps
	validator *requestValidator

	apiKey           string
	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
	checkTimeout     time.Duration
	maxUploadBytes   int64
}

func NewRouter(cfg config.Config, deps RouterDeps) (*Router, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Router{
		deps:      deps,
		validator: validator,

		apiKey:           cfg.APIKey,
		rateLimitRPS:     cfg.RateLimitRPS,
		rateLimitBurst:   cfg.RateLimitBurst,
		maxInFlight:      cfg.MaxInFlight,
		backpressureWait: defaultBackpressure,
		checkTimeout:     cfg.CheckTimeout,
		maxUploadBytes:   defaultMaxUploadBytes,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/paper-checks", rt.checkAbstract)
	api.HandleFunc("GET /v1/paper-checks", rt.listChecks)
	api.HandleFunc("POST /v1/paper-checks/jobs", rt.submitJobs)
	api.HandleFunc("POST /v1/paper-checks/pdf", rt.checkPDF)
	api.HandleFunc("GET /v1/paper-checks/{id}", rt.getCheck)
	api.HandleFunc("DELETE /v1/paper-checks/{id}", rt.deleteCheck)
	api.HandleFunc("GET /v1/paper-checks/{id}/export.xlsx", rt.exportCheck)

	var onReject rejectFunc
	if rt.deps.Metrics != nil {
		onReject = func(reason string) { rt.deps.Metrics.RecordRejected(reason) }
	}

	var v1 http.Handler = api
	v1 = rt.validator.middleware(v1)
	v1 = apiKeyMiddleware(v1, rt.apiKey)
	v1 = backpressureMiddleware(v1, rt.maxInFlight, rt.backpressureWait, onReject)
	v1 = rateLimitMiddleware(v1, rt.rateLimitRPS, rt.rateLimitBurst, onReject)

	root := http.NewServeMux()
	root.Handle("/v1/", v1)
	root.HandleFunc("GET /healthz", rt.healthz)
	root.HandleFunc("GET /readyz", rt.readyz)
	if rt.deps.Metrics != nil {
		root.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	var handler http.Handler = root
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	out := readiness{ConnectionReport: rt.deps.Checker.TestConnection(ctx)}
	if rt.deps.Breakers != nil {
		out.Breakers = rt.deps.Breakers()
	}
	status := http.StatusOK
	if !out.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, out)
}

type readiness struct {
	domain.ConnectionReport
	Breakers map[string]string `json:"breakers,omitempty"`
}

func (rt *Router) checkContext(parent context.Context) (context.Context, context.CancelFunc) {
	if rt.checkTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, rt.checkTimeout)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
