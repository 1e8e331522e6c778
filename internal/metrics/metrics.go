// Package metrics exposes prometheus collectors for the order lifecycle.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated      prometheus.Counter
	Transitions        *prometheus.CounterVec
	RejectedTransition *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers collectors on a private registry so tests can build as many
// as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexusmart",
			Name:      "orders_created_total",
			Help:      "Orders accepted at checkout.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexusmart",
			Name:      "order_transitions_total",
			Help:      "Accepted order lifecycle transitions.",
		}, []string{"action"}),
		RejectedTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexusmart",
			Name:      "order_transitions_rejected_total",
			Help:      "Order lifecycle transitions refused by a guard.",
		}, []string{"action", "reason"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexusmart",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nexusmart",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.OrdersCreated, m.Transitions, m.RejectedTransition, m.HTTPRequests, m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
