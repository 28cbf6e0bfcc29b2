// Package metrics holds the Prometheus collectors shared by the flow
// controller and the mock responder.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered against one registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	flowResults  *prometheus.CounterVec
	flowDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg gets a private registry,
// which keeps tests independent of the global default.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		flowResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_flow_results_total",
			Help: "OAuth login/signup attempts by provider, action and result kind",
		}, []string{"provider", "action", "result"}),
		flowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oauth_flow_duration_seconds",
			Help:    "Time from attempt start to resolution",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 30, 60, 300},
		}, []string{"provider", "action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mock_provider_http_requests_total",
			Help: "Requests served by the mock OAuth responder",
		}, []string{"method", "route", "status"}),
	}

	for _, c := range []prometheus.Collector{m.flowResults, m.flowDuration, m.httpRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveFlow records one resolved attempt. result is "success" or an error kind.
func (m *Metrics) ObserveFlow(provider, action, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.flowResults.WithLabelValues(provider, action, result).Inc()
	m.flowDuration.WithLabelValues(provider, action).Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request served by the mock responder.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
