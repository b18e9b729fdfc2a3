package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Watch metrics
var (
	// WatchBatchesTotal tracks delivered change batches by collection kind and phase
	WatchBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_batches_total",
			Help: "Change batches delivered by collection kind and phase (initial/incremental)",
		},
		[]string{"kind", "phase"},
	)

	// WatchesActive tracks currently open collection subscriptions
	WatchesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watches_active",
			Help: "Currently open collection subscriptions",
		},
	)

	// WatchDecodeErrorsTotal tracks change events that could not be decoded
	WatchDecodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_decode_errors_total",
			Help: "Change events dropped because the payload could not be decoded",
		},
	)
)

// Notification metrics
var (
	// NotificationsTotal tracks notification attempts by channel and outcome
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification attempts by channel (toast/sound/desktop) and status",
		},
		[]string{"channel", "status"},
	)

	// OrderEventsTotal tracks qualifying new-order events seen by the order watcher
	OrderEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_events_total",
			Help: "New-order events that entered the notification pipeline",
		},
	)

	// ToastsActive tracks toasts currently displayed
	ToastsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "toasts_active",
			Help: "Toasts currently displayed and not yet dismissed",
		},
	)
)

// Session metrics
var (
	// SessionTransitionsTotal tracks session state machine transitions
	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Session state machine transitions by target state",
		},
		[]string{"state"},
	)

	// TenantSwitchesTotal tracks order-watch re-subscriptions caused by tenant changes
	TenantSwitchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_switches_total",
			Help: "Order watch re-subscriptions caused by tenant scope changes",
		},
	)
)

// Gateway metrics
var (
	// GatewayConnectedClients tracks connected console shells
	GatewayConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_connected_clients",
			Help: "Console shells connected to the notification websocket",
		},
	)

	// GatewaySlowClientsEvicted tracks clients dropped for not keeping up
	GatewaySlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_slow_clients_evicted_total",
			Help: "Websocket clients evicted because their send buffer was full",
		},
	)
)
