// Package metrics provides Prometheus metrics for rekindle.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for rekindle. All methods are safe
// to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Import and suggestion metrics
	ImportsTotal          *prometheus.CounterVec
	MessagesImportedTotal prometheus.Counter
	SuggestionsTotal      *prometheus.CounterVec

	// Recommendation metrics
	PromptsLoggedTotal  prometheus.Counter
	PromptsSnoozedTotal prometheus.Counter
}

// New creates all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rekindle_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rekindle_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.ImportsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rekindle_chat_imports_total",
			Help: "Total number of chat export imports",
		},
		[]string{"result"},
	)

	m.MessagesImportedTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "rekindle_messages_imported_total",
			Help: "Total number of chat messages imported",
		},
	)

	m.SuggestionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rekindle_suggestions_total",
			Help: "Total number of suggestions stored, by source",
		},
		[]string{"source"},
	)

	m.PromptsLoggedTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "rekindle_export_prompts_logged_total",
			Help: "Total number of chat export prompts logged",
		},
	)

	m.PromptsSnoozedTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "rekindle_export_prompts_snoozed_total",
			Help: "Total number of chat export prompts snoozed",
		},
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a finished HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordImport records a chat import and the number of messages it stored.
func (m *Metrics) RecordImport(messages int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case messages == 0:
		result = "empty"
	}
	m.ImportsTotal.WithLabelValues(result).Inc()
	m.MessagesImportedTotal.Add(float64(messages))
}

// RecordSuggestion records a persisted suggestion.
func (m *Metrics) RecordSuggestion(source string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(source).Inc()
}

// RecordPromptLogged records a logged chat export prompt.
func (m *Metrics) RecordPromptLogged() {
	if m == nil {
		return
	}
	m.PromptsLoggedTotal.Inc()
}

// RecordPromptSnoozed records a snoozed chat export prompt.
func (m *Metrics) RecordPromptSnoozed() {
	if m == nil {
		return
	}
	m.PromptsSnoozedTotal.Inc()
}
