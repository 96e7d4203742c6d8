package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	notificationsDrop   *prometheus.CounterVec
	liveSubscribers     *prometheus.GaugeVec
	uploadLatency       prometheus.Histogram
	uploadRejected      *prometheus.CounterVec
	catalogCacheLookups *prometheus.CounterVec
	quizAttemptsTotal   *prometheus.CounterVec
	gradesTotal         prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors exposed on /metrics.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lms_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_notifications_dispatched_total",
			Help: "Notifications persisted and fanned out, by type.",
		}, []string{"type"})

		notificationsDrop = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_notifications_dropped_total",
			Help: "Notifications dropped during dispatch, by reason.",
		}, []string{"reason"})

		liveSubscribers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lms_notification_subscribers",
			Help: "Currently connected live notification subscribers, by transport.",
		}, []string{"transport"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lms_upload_latency_seconds",
			Help:    "Time spent storing submission files.",
			Buckets: prometheus.DefBuckets,
		})

		uploadRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_upload_rejected_total",
			Help: "Submission files rejected before storage, by reason.",
		}, []string{"reason"})

		catalogCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_course_catalog_cache_total",
			Help: "Course catalog cache lookups, by result.",
		}, []string{"result"})

		quizAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_quiz_attempts_total",
			Help: "Scored quiz attempts, by outcome.",
		}, []string{"passed"})

		gradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_grades_total",
			Help: "Grades written to submissions.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			notificationsTotal,
			notificationsDrop,
			liveSubscribers,
			uploadLatency,
			uploadRejected,
			catalogCacheLookups,
			quizAttemptsTotal,
			gradesTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// NotificationsDispatched counts persisted notifications by type.
func NotificationsDispatched() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// NotificationsDropped counts notifications that could not be delivered.
func NotificationsDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsDrop
}

// LiveSubscribers tracks SSE and WebSocket listeners.
func LiveSubscribers() *prometheus.GaugeVec {
	RegisterMetrics()
	return liveSubscribers
}

// UploadLatency observes storage upload duration.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejected
}

// CatalogCache counts course catalog cache hits and misses.
func CatalogCache() *prometheus.CounterVec {
	RegisterMetrics()
	return catalogCacheLookups
}

// QuizAttempts counts scored attempts.
func QuizAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return quizAttemptsTotal
}

// Grades counts grade writes.
func Grades() prometheus.Counter {
	RegisterMetrics()
	return gradesTotal
}
