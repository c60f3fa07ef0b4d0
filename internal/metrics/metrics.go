// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "us30bot"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	BookOps        *prometheus.CounterVec   // labels: op, result
	BookOpDuration *prometheus.HistogramVec // labels: op
	Notifications  *prometheus.CounterVec   // labels: result
	Signals        *prometheus.CounterVec   // labels: kind
	Inbound        *prometheus.CounterVec   // labels: source, kind
	Score          prometheus.Gauge
	OpenPositions  *prometheus.GaugeVec // labels: direction
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BookOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_ops_total",
			Help:      "Book operations applied, by outcome",
		}, []string{"op", "result"}),
		BookOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "book_op_duration_seconds",
			Help:      "Time spent applying a book operation",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification delivery attempts, by outcome",
		}, []string{"result"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Classified signals recorded, by kind",
		}, []string{"kind"}),
		Inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound messages by source and handling",
		}, []string{"source", "kind"}),
		Score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Last computed setup score (0-100)",
		}),
		OpenPositions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Open positions by direction",
		}, []string{"direction"}),
	}
	m.registry.MustRegister(
		m.BookOps, m.BookOpDuration, m.Notifications, m.Signals, m.Inbound, m.Score, m.OpenPositions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveOp implements book.Observer.
func (m *Metrics) ObserveOp(op string, took time.Duration, err error) {
	m.BookOps.WithLabelValues(op, result(err)).Inc()
	m.BookOpDuration.WithLabelValues(op).Observe(took.Seconds())
}

// ObserveNotify implements notifier.Observer.
func (m *Metrics) ObserveNotify(err error) {
	m.Notifications.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveSignal(kind string) {
	m.Signals.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveInbound(source, kind string) {
	m.Inbound.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) SetScore(total int) {
	m.Score.Set(float64(total))
}

func (m *Metrics) SetPositions(long, short int) {
	m.OpenPositions.WithLabelValues("long").Set(float64(long))
	m.OpenPositions.WithLabelValues("short").Set(float64(short))
}
