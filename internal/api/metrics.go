package api

import (
	"net/http"
	"strconv"
	"time"
	"workspace-server/internal/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	workspaceOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workspace_operations_total",
		Help: "Workspace tree operations by kind and outcome.",
	}, []string{"op", "outcome"})
)

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch workspace.Kind(err) {
	case workspace.ErrNotFound:
		return "not_found"
	case workspace.ErrForbidden:
		return "forbidden"
	case workspace.ErrConflict:
		return "conflict"
	case workspace.ErrInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

func recordOperation(op string, err error) {
	workspaceOperationsTotal.WithLabelValues(op, outcome(err)).Inc()
}
