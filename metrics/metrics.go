// Package metrics provides Prometheus metrics for fapctl.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionTransitions counts session state changes by target state.
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fap",
			Name:      "session_transitions_total",
			Help:      "Total number of session state transitions",
		},
		[]string{"state", "reason"},
	)

	// RelationshipOperations counts relationship store operations by outcome.
	RelationshipOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fap",
			Name:      "relationship_operations_total",
			Help:      "Total number of relationship operations",
		},
		[]string{"operation", "status"},
	)

	// CollaboratorRequestDuration measures outbound request latency.
	CollaboratorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fap",
			Name:      "collaborator_request_duration_seconds",
			Help:      "Duration of requests to the identity and relationship services",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collaborator", "method", "status"},
	)

	// AvailabilityProbes counts availability probes by field and result.
	AvailabilityProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fap",
			Name:      "availability_probes_total",
			Help:      "Total number of username/email availability probes",
		},
		[]string{"field", "result"},
	)

	// Authenticated reports whether the process holds a live session.
	Authenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fap",
			Name:      "session_authenticated",
			Help:      "Session status (1 = authenticated, 0 = unauthenticated)",
		},
	)
)

// RecordSessionTransition records a session state change.
func RecordSessionTransition(authenticated bool, reason string) {
	state := "unauthenticated"
	if authenticated {
		state = "authenticated"
		Authenticated.Set(1)
	} else {
		Authenticated.Set(0)
	}
	SessionTransitions.WithLabelValues(state, reason).Inc()
}

// RecordRelationshipOperation records a relationship store operation.
func RecordRelationshipOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RelationshipOperations.WithLabelValues(operation, status).Inc()
}

// RecordCollaboratorRequest records an outbound request.
func RecordCollaboratorRequest(collaborator, method, status string, seconds float64) {
	CollaboratorRequestDuration.WithLabelValues(collaborator, method, status).Observe(seconds)
}

// RecordProbe records an availability probe result.
func RecordProbe(field, result string) {
	AvailabilityProbes.WithLabelValues(field, result).Inc()
}
