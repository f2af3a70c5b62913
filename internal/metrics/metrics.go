package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	assignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignments_total",
			Help: "Total number of assignment attempts by outcome.",
		},
		[]string{"outcome"},
	)
	assignmentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assignment_latency_seconds",
			Help:    "Duration of the assignment commit, by outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	ordersInQueue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orders_in_queue",
			Help: "Current depth of the order queue awaiting assignment.",
		},
	)
	courierUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courier_utilization",
			Help: "Fraction of a courier's capacity currently in use (current_load/capacity).",
		},
		[]string{"courier_id"},
	)
)

func init() {
	prometheus.MustRegister(
		assignmentsTotal,
		assignmentLatency,
		ordersInQueue,
		courierUtilization,
	)
}

// Outcome labels used with IncAssignment / ObserveAssignmentLatency.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// IncAssignment records one assignment attempt outcome.
func IncAssignment(outcome string) {
	assignmentsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAssignmentLatency records one assignment commit duration under the
// given outcome label.
func ObserveAssignmentLatency(outcome string, d time.Duration) {
	assignmentLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetOrdersInQueue sets the order queue depth gauge; sampled periodically
// by the jobs package.
func SetOrdersInQueue(n int) {
	ordersInQueue.Set(float64(n))
}

// SetCourierUtilization sets a courier's utilization gauge.
func SetCourierUtilization(courierID string, currentLoad, capacity int) {
	if capacity <= 0 {
		courierUtilization.WithLabelValues(courierID).Set(0)
		return
	}
	courierUtilization.WithLabelValues(courierID).Set(float64(currentLoad) / float64(capacity))
}

// NewRateLimitExceededTotal returns a Prometheus counter for the number of
// rejected HTTP requests due to rate limiting.
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}
