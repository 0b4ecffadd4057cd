package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/najoast/steady/actor"
	"github.com/najoast/steady/core"
)

// Metrics holds all Prometheus metrics of a pipeline run. It implements
// channel.Observer, core.Observer and actor.Sink so it can be wired
// straight into the graph.
type Metrics struct {
	registry *prometheus.Registry

	// Channel metrics
	ChannelFilled     *prometheus.GaugeVec
	ChannelCapacity   *prometheus.GaugeVec
	ChannelFillAvg    *prometheus.GaugeVec
	ChannelFillPct    *prometheus.GaugeVec
	ChannelAlert      *prometheus.GaugeVec
	ChannelSentTotal  *prometheus.CounterVec
	ChannelTakenTotal *prometheus.CounterVec

	// Actor metrics
	ActorState      *prometheus.GaugeVec
	ActorIterations *prometheus.CounterVec
	ActorRestarts   *prometheus.CounterVec

	// Pipeline metrics
	MessagesLogged *prometheus.CounterVec
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ChannelFilled: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "steady_channel_filled",
				Help: "Items currently buffered in the channel",
			},
			[]string{"channel"},
		),
		ChannelCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "steady_channel_capacity",
				Help: "Channel capacity",
			},
			[]string{"channel"},
		),
		ChannelFillAvg: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "steady_channel_fill_avg",
				Help: "Rolling average fill ratio",
			},
			[]string{"channel"},
		),
		ChannelFillPct: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "steady_channel_fill_percentile",
				Help: "Rolling fill ratio percentile",
			},
			[]string{"channel"},
		),
		ChannelAlert: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "steady_channel_alert",
				Help: "Fill alert level: 0 none, 1 orange, 2 red",
			},
			[]string{"channel"},
		),
		ChannelSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steady_channel_sent_total",
				Help: "Items sent into the channel",
			},
			[]string{"channel"},
		),
		ChannelTakenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steady_channel_taken_total",
				Help: "Items taken from the channel",
			},
			[]string{"channel"},
		),

		ActorState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "steady_actor_state",
				Help: "Actor state: 0 idle, 1 running, 2 stopping, 3 restarting, 4 stopped",
			},
			[]string{"actor"},
		),
		ActorIterations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steady_actor_iterations_total",
				Help: "Actor loop iterations",
			},
			[]string{"actor"},
		),
		ActorRestarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steady_actor_restarts_total",
				Help: "Actor restarts after a panic",
			},
			[]string{"actor"},
		),

		MessagesLogged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steady_messages_logged_total",
				Help: "Classified messages drained by the logger",
			},
			[]string{"kind"},
		),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ChannelSent implements channel.Observer.
func (m *Metrics) ChannelSent(name string, filled int) {
	m.ChannelSentTotal.WithLabelValues(name).Inc()
	m.ChannelFilled.WithLabelValues(name).Set(float64(filled))
}

// ChannelTaken implements channel.Observer.
func (m *Metrics) ChannelTaken(name string, filled int) {
	m.ChannelTakenTotal.WithLabelValues(name).Inc()
	m.ChannelFilled.WithLabelValues(name).Set(float64(filled))
}

// ChannelClosed implements channel.Observer.
func (m *Metrics) ChannelClosed(name string) {}

// ActorIteration implements core.Observer.
func (m *Metrics) ActorIteration(name string) {
	m.ActorIterations.WithLabelValues(name).Inc()
}

// ActorRestarted implements core.Observer.
func (m *Metrics) ActorRestarted(name string) {
	m.ActorRestarts.WithLabelValues(name).Inc()
}

// ActorStateChanged implements core.Observer.
func (m *Metrics) ActorStateChanged(name string, state core.ActorState) {
	m.ActorState.WithLabelValues(name).Set(float64(state))
}

// Record implements actor.Sink by counting messages per kind.
func (m *Metrics) Record(msg actor.FizzBuzzMessage) {
	m.MessagesLogged.WithLabelValues(msg.Kind().String()).Inc()
}
