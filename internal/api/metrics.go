package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetme/conferencebridge/internal/metrics"
)

// metricsHandler builds a dedicated registry for collector and returns the
// standard Prometheus scrape handler, isolated from the default global
// registry so the admin surface never picks up unrelated process metrics
// registered elsewhere in the binary.
func metricsHandler(collector *metrics.Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
