package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers can coexist in
// one process (tests start many).
type Metrics struct {
	OpenSessions    prometheus.Gauge
	IdentifiedUsers prometheus.Gauge
	RelayedTotal    prometheus.Counter
	EchoedTotal     prometheus.Counter
	DroppedTotal    prometheus.Counter

	reg *prometheus.Registry
}

func NewMetrics() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}

	m.OpenSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_open_sessions",
		Help: "Websocket sessions currently accepted by the relay.",
	})
	m.IdentifiedUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_identified_users",
		Help: "User IDs currently registered in the presence registry.",
	})
	m.RelayedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_relayed_total",
		Help: "Messages forwarded to an online receiver.",
	})
	m.EchoedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_echoed_total",
		Help: "Messages echoed back to their sender.",
	})
	m.DroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_dropped_total",
		Help: "Delivery attempts dropped: receiver offline, unresolvable, or queue full.",
	})

	m.reg.MustRegister(
		m.OpenSessions,
		m.IdentifiedUsers,
		m.RelayedTotal,
		m.EchoedTotal,
		m.DroppedTotal,
	)
	return m
}

// Handler exposes the collectors for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
