package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_checks_total",
			Help: "Number of completed availability checks by resulting status",
		},
		[]string{"status"},
	)

	CheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitewatch_check_duration_seconds",
			Help:    "Duration of availability probes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_transitions_total",
			Help: "Number of status transitions by new status",
		},
		[]string{"to"},
	)

	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_webhook_deliveries_total",
			Help: "Webhook delivery outcomes after retries",
		},
		[]string{"outcome"},
	)
)

func Init() {
	prometheus.MustRegister(ChecksTotal, CheckDuration, TransitionsTotal, WebhookDeliveries)
}
