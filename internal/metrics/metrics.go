package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miny_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "miny_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miny_claims_total",
			Help: "Total number of slot claim attempts by slot kind and result",
		},
		[]string{"kind", "result"},
	)

	SlotsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "miny_slots_created_total",
			Help: "Total number of slots created by hosts",
		},
	)

	CapacityReleasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miny_capacity_released_total",
			Help: "Total number of claimed capacity units released by hosts",
		},
		[]string{"kind"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miny_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "miny_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miny_events_published_total",
			Help: "Total number of slot events handed to the event bus",
		},
		[]string{"type", "status"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miny_logins_total",
			Help: "Total number of host login attempts",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordClaim(kind, result string) {
	ClaimsTotal.WithLabelValues(kind, result).Inc()
}

func RecordSlotsCreated(n int) {
	SlotsCreatedTotal.Add(float64(n))
}

func RecordCapacityReleased(kind string) {
	CapacityReleasedTotal.WithLabelValues(kind).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordEvent(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

func RecordLogin(status string) {
	LoginsTotal.WithLabelValues(status).Inc()
}
