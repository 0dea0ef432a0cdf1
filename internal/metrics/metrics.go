package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coworkingbot"

var (
	once sync.Once

	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates processed by kind.",
		},
		[]string{"kind"},
	)

	updateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "update_processing_seconds",
		Help:      "Time spent processing one update.",
		Buckets:   prometheus.DefBuckets,
	})

	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Backend RPC calls by action and outcome.",
		},
		[]string{"action", "status"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Backend RPC latency by action.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"action"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Admin notifications by class and delivery status.",
		},
		[]string{"class", "status"},
	)

	errorReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_reports_total",
			Help:      "Error reports by aggregation decision.",
		},
		[]string{"decision"},
	)

	bookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Bookings created through the bot.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			updatesTotal,
			updateDuration,
			backendCalls,
			backendDuration,
			notifications,
			errorReports,
			bookingsCreated,
		)
	})
}

func ObserveUpdate(kind string, took time.Duration) {
	updatesTotal.WithLabelValues(kind).Inc()
	updateDuration.Observe(took.Seconds())
}

func ObserveBackendCall(action, status string, took time.Duration) {
	backendCalls.WithLabelValues(action, status).Inc()
	backendDuration.WithLabelValues(action).Observe(took.Seconds())
}

func IncNotification(class, status string) {
	notifications.WithLabelValues(class, status).Inc()
}

func IncErrorReport(sent bool) {
	decision := "suppressed"
	if sent {
		decision = "sent"
	}
	errorReports.WithLabelValues(decision).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}
