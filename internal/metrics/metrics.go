package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intake Metrics
	IntakeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triton_intake_outcomes_total",
			Help: "Total number of card intake attempts by outcome",
		},
		[]string{"outcome"}, // "queued", "requeued", "duplicate", "invalid", "failed"
	)

	// Broker Metrics
	JobsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triton_messages_published_total",
			Help: "Total number of messages published by topic and result",
		},
		[]string{"topic", "result"},
	)

	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triton_status_updates_total",
			Help: "Total number of status update messages by result",
		},
		[]string{"result"}, // "applied", "unknown_media", "poison", "failed"
	)

	// Board Metrics
	BoardRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triton_board_requests_total",
			Help: "Total number of board API calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triton_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Pipeline Metrics
	StaleQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "triton_stale_queued_media",
			Help: "Number of media records queued longer than the stale threshold",
		},
	)
)

// RecordIntake records the outcome of one card intake
func RecordIntake(outcome string) {
	IntakeOutcomes.WithLabelValues(outcome).Inc()
}

// RecordPublish records a publish attempt on a topic
func RecordPublish(topic string, err error) {
	JobsPublished.WithLabelValues(topic, result(err)).Inc()
}

// RecordStatusUpdate records the handling of one status update message
func RecordStatusUpdate(result string) {
	StatusUpdates.WithLabelValues(result).Inc()
}

// RecordBoardRequest records a board API call
func RecordBoardRequest(operation string, err error) {
	BoardRequests.WithLabelValues(operation, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
