// Package metrics holds the prometheus collectors for the api, the worker and
// the check pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "papercheck"

// newRegistry returns a registry with runtime collectors and a factory whose
// metrics all carry the service label.
func newRegistry(service string) (*prometheus.Registry, promauto.Factory) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)
	labelled := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)
	return registry, promauto.With(labelled)
}

func handlerFor(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
