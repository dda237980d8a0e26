package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"investcli/internal/infrastructure"
)

// MetricsHandler exposes the Prometheus scrape endpoint.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler serves the exporter registered by providers, falling
// back to the default registry when metrics export is disabled.
func NewMetricsHandler(providers *infrastructure.OTelProviders) *MetricsHandler {
	if providers != nil && providers.PrometheusHTTP != nil {
		return &MetricsHandler{handler: providers.PrometheusHTTP}
	}
	return &MetricsHandler{handler: promhttp.Handler()}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}
