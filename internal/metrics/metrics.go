/*
Package metrics exposes Prometheus instrumentation for hub activity.

Collectors register against the default registry and are served by the
gateway's /metrics endpoint.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "relayhub"

var (
	// ActiveSessions tracks connections whose receive loop is running,
	// identified or not.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of connections with a live receive loop",
	})

	// RegisteredUsers tracks sessions with an accepted user.
	RegisteredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registered_users",
		Help:      "Number of sessions with a registered user",
	})

	// MessagesRelayed counts messages accepted into the log and broadcast.
	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_relayed_total",
		Help:      "Total messages validated and fanned out",
	})

	// PacketsSent counts individual packet transmissions to recipients.
	PacketsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_sent_total",
		Help:      "Total packets written to peers",
	})

	// DeliveryErrors counts failed writes to individual recipients.
	DeliveryErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_errors_total",
		Help:      "Total failed packet deliveries",
	})

	// ValidationRejects counts silently dropped payloads by kind.
	ValidationRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_rejects_total",
		Help:      "Total payloads dropped by validation",
	}, []string{"kind"})
)
