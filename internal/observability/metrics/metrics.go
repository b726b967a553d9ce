package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securepay_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "securepay_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	paymentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securepay_payments_created_total",
		Help: "Count of payment instructions created, by provider and currency",
	}, []string{"provider", "currency"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securepay_payment_status_transitions_total",
		Help: "Count of payment status transitions",
	}, []string{"from", "to"})

	loginFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securepay_login_failures_total",
		Help: "Count of failed login attempts by principal kind",
	}, []string{"role"})

	csrfRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securepay_csrf_rejections_total",
		Help: "Count of requests rejected by the CSRF guard",
	})

	pendingPayments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "securepay_pending_payments",
		Help: "Number of payments currently awaiting staff review",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObservePaymentCreated increments the created counter.
func ObservePaymentCreated(provider, currency string) {
	paymentsCreated.WithLabelValues(provider, currency).Inc()
}

// ObserveStatusTransition records a lifecycle transition.
func ObserveStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

// ObserveLoginFailure records a failed login for a principal kind.
func ObserveLoginFailure(role string) {
	loginFailures.WithLabelValues(role).Inc()
}

// ObserveCSRFRejection records a request stopped by the CSRF guard.
func ObserveCSRFRejection() {
	csrfRejections.Inc()
}

// SetPendingPayments sets the awaiting-review gauge.
func SetPendingPayments(count int) {
	if count < 0 {
		count = 0
	}
	pendingPayments.Set(float64(count))
}
