package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookEventsTotal,
		checkoutSessionsTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Inbound payment webhook events by type and result.",
		},
		[]string{"type", "result"}, // result: 'ok', 'invalid_signature', 'error'
	)

	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions created per plan.",
		},
		[]string{"plan"},
	)
)

func IncWebhookEvent(eventType, result string) {
	webhookEventsTotal.WithLabelValues(eventType, result).Inc()
}

func IncCheckoutSession(plan string) {
	checkoutSessionsTotal.WithLabelValues(plan).Inc()
}
