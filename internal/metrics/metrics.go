package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelsoyo_status_updates_total",
			Help: "Station status updates by outcome",
		},
		[]string{"result"}, // ok, not_found, conflict, error
	)

	EmailsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelsoyo_emails_logged_total",
			Help: "Simulated emails written to the email log",
		},
		[]string{"reason"}, // fuel_available, fuel_depleted, station_added, direct
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelsoyo_notifications_created_total",
			Help: "In-app notifications created",
		},
		[]string{"severity"},
	)

	StationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelsoyo_station_requests_total",
			Help: "Station requests by workflow step",
		},
		[]string{"step"}, // submitted, approved, rejected
	)

	StreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fuelsoyo_notification_subscribers",
			Help: "Live notification stream subscribers",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

func RecordStatusUpdate(result string) {
	StatusUpdates.WithLabelValues(result).Inc()
}

func RecordEmail(reason string) {
	EmailsLogged.WithLabelValues(reason).Inc()
}

func RecordNotification(severity string) {
	NotificationsCreated.WithLabelValues(severity).Inc()
}

func RecordStationRequest(step string) {
	StationRequests.WithLabelValues(step).Inc()
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
