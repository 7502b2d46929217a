package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenda",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agenda",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agenda",
			Name:      "reservations_created_total",
			Help:      "Count of reservations persisted.",
		},
	)

	reservationsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenda",
			Name:      "reservations_cancelled_total",
			Help:      "Count of reservations cancelled, split by whether they were paid.",
		},
		[]string{"paid"},
	)

	calendarSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenda",
			Name:      "calendar_sync_total",
			Help:      "Count of calendar calls by operation and result.",
		},
		[]string{"operation", "result"},
	)

	creditGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agenda",
			Name:      "credit_granted_cents_total",
			Help:      "Credit granted to professionals on cancellation, in cents.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, reservationsCreated, reservationsCancelled, calendarSync, creditGranted)
	})
}

func ObserveHTTP(route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncReservationsCreated(n int) {
	reservationsCreated.Add(float64(n))
}

func IncReservationCancelled(paid bool) {
	reservationsCancelled.WithLabelValues(strconv.FormatBool(paid)).Inc()
}

func IncCalendarSync(operation, result string) {
	calendarSync.WithLabelValues(operation, result).Inc()
}

func AddCreditGranted(cents int64) {
	if cents > 0 {
		creditGranted.Add(float64(cents))
	}
}
