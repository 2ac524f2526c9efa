package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	connections      prometheus.Gauge
	accepted         prometheus.Counter
	channels         prometheus.Gauge
	commands         *prometheus.CounterVec
	replyErrors      *prometheus.CounterVec
	deliveryFailures prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayd_connections",
			Help: "Currently open client connections",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayd_connections_accepted_total",
			Help: "Client connections accepted since start",
		}),
		channels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayd_channels",
			Help: "Channels with at least one member",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayd_commands_total",
			Help: "Protocol commands dispatched, by verb",
		}, []string{"command"}),
		replyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayd_reply_errors_total",
			Help: "Error numerics sent to clients, by code",
		}, []string{"code"}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayd_delivery_failures_total",
			Help: "Lines dropped because a client's send queue was full",
		}),
	}

	for _, c := range []prometheus.Collector{m.connections, m.accepted, m.channels, m.commands, m.replyErrors, m.deliveryFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe is the wildcard command hook feeding the command counter
func (m *metrics) observe(ev *CommandEvent) error {
	verb := ev.Message.Command
	if !ev.Known {
		verb = "unknown"
	}
	m.commands.WithLabelValues(verb).Inc()
	return nil
}

func codeLabel(code int) string {
	return strconv.Itoa(code)
}
