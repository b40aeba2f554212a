package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 客戶端核心的計量，經由 gateway /metrics 暴露
var (
	// PollTotal notification poll attempts
	PollTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_notification_polls_total",
		Help: "Total notification poll attempts.",
	})

	// PollFailures failed notification polls
	PollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_notification_poll_failures_total",
		Help: "Notification polls that errored; previous snapshot retained.",
	})

	// NewNotifications notifications detected by snapshot diff
	NewNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_notifications_new_total",
		Help: "Notifications first seen by the snapshot diff.",
	})

	// UnreadGauge unread count of the last snapshot
	UnreadGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "client_notifications_unread",
		Help: "Unread notifications in the last fetched snapshot.",
	})

	// MessagesSent messages persisted through the REST write path
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_chat_messages_sent_total",
		Help: "Chat messages persisted via REST.",
	})

	// MessagesReceived messages delivered on the live channel
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_chat_messages_received_total",
		Help: "Chat messages delivered by the live subscription.",
	})

	// TransportReconnects live channel reconnect attempts
	TransportReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_transport_reconnects_total",
		Help: "Reconnect attempts of the shared STOMP websocket.",
	})
)
