package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitnest_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitnest_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RealtimeConnections tracks currently connected websocket sessions.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "splitnest_realtime_connections",
			Help: "Number of open websocket connections",
		},
	)

	// BroadcastEvents counts fanout events by type.
	BroadcastEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitnest_broadcast_events_total",
			Help: "Total number of events fanned out over websocket",
		},
		[]string{"type"},
	)

	// InvitationsAccepted counts settled friend invitations.
	InvitationsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitnest_invitations_accepted_total",
			Help: "Total number of accepted friend invitations",
		},
	)

	// UsersTotal reports the number of registered users (refreshed periodically).
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "splitnest_users_total",
			Help: "Number of registered users",
		},
	)

	// PendingInvitations reports outstanding friend invitations (refreshed periodically).
	PendingInvitations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "splitnest_pending_invitations",
			Help: "Number of friend invitations still pending",
		},
	)

	// SharedExpensesTotal reports stored shared expenses (refreshed periodically).
	SharedExpensesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "splitnest_shared_expenses_total",
			Help: "Number of shared expense records",
		},
	)
)
