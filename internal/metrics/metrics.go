package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rapidaid_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rapidaid_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// AlertsCreated counts persisted alerts by severity.
	AlertsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rapidaid_alerts_created_total",
			Help: "Number of alerts persisted",
		},
		[]string{"severity"},
	)

	// NotificationDeliveries counts individual delivery attempts.
	NotificationDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rapidaid_notification_deliveries_total",
			Help: "Notification delivery attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	NotificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rapidaid_notification_delivery_duration_seconds",
			Help:    "Duration of provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)
)

// Init registers every collector with the default registry.
func Init() {
	prometheus.MustRegister(RequestCount, RequestDuration, AlertsCreated, NotificationDeliveries, NotificationDuration)
}
