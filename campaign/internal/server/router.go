// Package server provides HTTP server setup for the campaign service.
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/handlers"
	"github.com/telhawk-systems/campaign-stack/common/logging"
	"github.com/telhawk-systems/campaign-stack/common/middleware"
)

// NewRouter constructs a ServeMux with campaign API routes registered.
// An empty metricsPath disables the Prometheus endpoint. Forwarding headers
// are honoured only for requests arriving from proxies.
func NewRouter(h *handlers.Handler, metricsPath string, proxies middleware.TrustedProxies, logger *logging.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.HandleFunc("/readyz", h.ReadyCheck)

	if metricsPath != "" {
		mux.Handle(metricsPath, promhttp.Handler())
	}

	mux.HandleFunc("/api/v1/events/trigger", h.Trigger)
	mux.HandleFunc("/api/v1/contacts/current", h.CurrentContact)

	return middleware.RequestID(middleware.ClientIP(proxies, accessLog(logger, mux)))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog logs every request at debug level with its outcome.
func accessLog(logger *logging.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.DebugContext(r.Context(), "http request",
			logging.Method(r.Method),
			logging.Path(r.URL.Path),
			logging.Status(rec.status),
			logging.IP(middleware.GetClientIP(r.Context())),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
