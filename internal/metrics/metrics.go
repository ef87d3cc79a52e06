package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_relay"

// Relay outcomes used as the "outcome" label.
const (
	OutcomeReplied = "replied"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics groups the relay's Prometheus instruments on a private registry.
//
// Metrics:
//   - chat_relay_messages_total: inbound chat messages by outcome
//   - chat_relay_upstream_request_duration_seconds: RAG call latency by result
//   - chat_relay_connections_active: currently open WebSocket connections
//   - chat_relay_connections_rejected_total: handshakes refused by the gate
type Metrics struct {
	registry *prometheus.Registry

	messagesTotal       *prometheus.CounterVec
	upstreamDuration    *prometheus.HistogramVec
	connectionsActive   prometheus.Gauge
	connectionsRejected prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Inbound chat messages handled, by outcome",
			},
			[]string{"outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of RAG service queries in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"result"},
		),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open WebSocket connections",
		}),
		connectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "WebSocket handshakes rejected for a missing client id",
		}),
	}

	registry.MustRegister(
		m.messagesTotal,
		m.upstreamDuration,
		m.connectionsActive,
		m.connectionsRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Nil-safe recorders: a nil *Metrics turns every call into a no-op.

func (m *Metrics) RecordMessage(outcome string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveUpstream(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.upstreamDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) ConnectionRejected() {
	if m == nil {
		return
	}
	m.connectionsRejected.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
