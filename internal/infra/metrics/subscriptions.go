package metrics

import (
	"teacher-directory-backend/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		redemptionsTotal,
		subscriptionsTotal,
		cancellationsTotal,
	)
}

var (
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_code_redemptions_total",
			Help: "Access code redemption attempts by result.",
		},
		[]string{"result"}, // 'success', 'denied', 'error'
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of schools by subscription status.",
		},
		[]string{"status"},
	)

	cancellationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_cancellations_total",
			Help: "Total number of subscription cancellations.",
		},
	)
)

func IncRedemption(result string) {
	redemptionsTotal.WithLabelValues(result).Inc()
}

func IncCancellation() {
	cancellationsTotal.Inc()
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusNone,
		model.SubscriptionStatusTrial,
		model.SubscriptionStatusActive,
		model.SubscriptionStatusExpired,
		model.SubscriptionStatusCancelled,
	}
	for _, status := range statuses {
		if count, ok := counts[status]; ok {
			subscriptionsTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}
}
