package prometheus

import (
	"time"

	"boardinghouse-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Occupancy metrics
	AssignmentOperationsCounter prometheus.CounterVec
	RoomOccupancyGauge          prometheus.GaugeVec

	// Ledger metrics
	PaymentOperationsCounter  prometheus.CounterVec
	ObligationsCreatedCounter prometheus.CounterVec

	// Scheduler metrics
	SchedulerRunsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Assignment metrics
	AssignmentOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_assignment_operations_total",
			Help: "Total number of room assignment operations",
		},
		[]string{"operation", "outcome"},
	)

	// Room occupancy gauge
	RoomOccupancyGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_room_occupancy",
			Help: "Current occupant count per room",
		},
		[]string{"room_number"},
	)

	// Payment metrics
	PaymentOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_payment_operations_total",
			Help: "Total number of payment operations",
		},
		[]string{"operation", "outcome"},
	)

	// Obligation generation metrics
	ObligationsCreatedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_obligations_created_total",
			Help: "Total number of obligations created by generation runs",
		},
		[]string{"type"},
	)

	// Scheduler metrics
	SchedulerRunsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_scheduler_runs_total",
			Help: "Total number of scheduled billing runs",
		},
		[]string{"outcome"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAssignmentOperation increments the counter for assignment operations
func RecordAssignmentOperation(operation, outcome string) {
	AssignmentOperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// UpdateRoomOccupancy updates the occupancy gauge for a room
func UpdateRoomOccupancy(roomNumber string, count float64) {
	RoomOccupancyGauge.WithLabelValues(roomNumber).Set(count)
}

// RecordPaymentOperation increments the counter for payment operations
func RecordPaymentOperation(operation, outcome string) {
	PaymentOperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordObligationsCreated adds to the created-obligations counter
func RecordObligationsCreated(obligationType string, count int) {
	ObligationsCreatedCounter.WithLabelValues(obligationType).Add(float64(count))
}

// RecordSchedulerRun increments the scheduler run counter
func RecordSchedulerRun(outcome string) {
	SchedulerRunsCounter.WithLabelValues(outcome).Inc()
}
