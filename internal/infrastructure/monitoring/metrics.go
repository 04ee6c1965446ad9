// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection on its own registry
type MetricsCollector struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Planning metrics
	plansBuiltTotal     prometheus.Counter
	slotsRequestedTotal prometheus.Counter
	slotsFilledTotal    prometheus.Counter
	partialPlansTotal   prometheus.Counter
	candidatesTotal     *prometheus.CounterVec
	providerFailures    *prometheus.CounterVec
	tasksFinishedTotal  *prometheus.CounterVec
}

// NewMetricsCollector creates a collector with Go and process collectors registered
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		plansBuiltTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealplan_plans_built_total",
			Help: "Total number of meal plans persisted",
		}),
		slotsRequestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealplan_slots_requested_total",
			Help: "Total number of meal slots requested",
		}),
		slotsFilledTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealplan_slots_filled_total",
			Help: "Total number of meal slots filled with a recipe",
		}),
		partialPlansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealplan_partial_plans_total",
			Help: "Plans persisted with fewer slots than requested",
		}),
		candidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplan_candidates_collected_total",
				Help: "Recipe candidates contributed per provider",
			},
			[]string{"provider"},
		),
		providerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplan_provider_failures_total",
				Help: "Recipe provider failures absorbed by the chain",
			},
			[]string{"provider"},
		),
		tasksFinishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplan_tasks_finished_total",
				Help: "Background generation tasks by final state",
			},
			[]string{"state"},
		),
	}
}

var _ outbound.PlanMetrics = (*MetricsCollector)(nil)

// PlanBuilt records one persisted plan
func (m *MetricsCollector) PlanBuilt(requested, created int) {
	m.plansBuiltTotal.Inc()
	m.slotsRequestedTotal.Add(float64(requested))
	m.slotsFilledTotal.Add(float64(created))
	if created < requested {
		m.partialPlansTotal.Inc()
	}
}

// CandidatesCollected records a provider's contribution
func (m *MetricsCollector) CandidatesCollected(provider string, n int) {
	m.candidatesTotal.WithLabelValues(provider).Add(float64(n))
}

// ProviderFailed records a provider failure
func (m *MetricsCollector) ProviderFailed(provider string) {
	m.providerFailures.WithLabelValues(provider).Inc()
}

// TaskFinished records a task reaching a terminal state
func (m *MetricsCollector) TaskFinished(state task.State) {
	m.tasksFinishedTotal.WithLabelValues(string(state)).Inc()
}

// HTTPMiddleware records request counts and latency, labelled by route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}
