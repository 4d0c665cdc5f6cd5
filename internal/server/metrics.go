// Package server exports relay counters and gauges in Prometheus format.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "relay"

// Metrics groups the relay's Prometheus collectors. Each Metrics owns its
// registry so several hubs can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	clients            prometheus.Gauge
	channels           prometheus.Gauge
	admissionsRejected prometheus.Counter
	evictions          *prometheus.CounterVec
	linesRelayed       prometheus.Counter
	linesDiscarded     *prometheus.CounterVec
	joinsRejected      *prometheus.CounterVec
	heartbeatProbes    prometheus.Counter
}

// NewMetrics creates and registers the relay collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "clients",
			Help:      "Connected clients.",
		}),
		channels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "channels",
			Help:      "Channels with at least one member.",
		}),
		admissionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admissions_rejected_total",
			Help:      "Connections closed because the client registry was full.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evictions_total",
			Help:      "Clients disconnected, by reason.",
		}, []string{"reason"}),
		linesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lines_relayed_total",
			Help:      "Lines queued for delivery to channel members.",
		}),
		linesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lines_discarded_total",
			Help:      "Inbound lines dropped without effect, by reason.",
		}, []string{"reason"}),
		joinsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "joins_rejected_total",
			Help:      "JOIN commands refused by channel capacity limits.",
		}, []string{"reason"}),
		heartbeatProbes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "heartbeat_probes_total",
			Help:      "HEART probes queued to clients.",
		}),
	}

	m.registry.MustRegister(
		m.clients,
		m.channels,
		m.admissionsRejected,
		m.evictions,
		m.linesRelayed,
		m.linesDiscarded,
		m.joinsRejected,
		m.heartbeatProbes,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
