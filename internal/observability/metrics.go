package observability

import "github.com/prometheus/client_golang/prometheus"

// Marketplace counters. HTTP-level metrics live in the middleware package;
// these track domain events and are exported on the same /metrics endpoint.
var (
	ConversationsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_conversations_started_total",
		Help: "Conversations created on first contact (repeat contacts are not counted).",
	})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_messages_sent_total",
		Help: "Messages appended to conversations.",
	})

	// AuthFailures is labelled by reason: missing_token, invalid_token,
	// bad_credentials, email_taken.
	AuthFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_auth_failures_total",
		Help: "Rejected authentication attempts by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(ConversationsStarted, MessagesSent, AuthFailures)
}
