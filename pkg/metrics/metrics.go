package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Access control
	PermissionDecisions *prometheus.CounterVec
	DecisionLatency     prometheus.Histogram

	// Availability
	SlotsComputed *prometheus.HistogramVec

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PermissionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rbac",
			Name:      "decisions_total",
			Help:      "Total number of permission decisions by outcome and status",
		}, []string{"outcome", "status"}),
		DecisionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rbac",
			Name:      "decision_duration_seconds",
			Help:      "Time spent resolving a permission decision",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		SlotsComputed: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "slots_computed",
			Help:      "Number of slots produced per availability query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"kind"}),
		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),
		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

func (m *Metrics) ObserveDecision(allowed bool, status int, started time.Time) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.PermissionDecisions.WithLabelValues(outcome, strconv.Itoa(status)).Inc()
	m.DecisionLatency.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveSlots(available, booked int) {
	if m == nil {
		return
	}
	m.SlotsComputed.WithLabelValues("available").Observe(float64(available))
	m.SlotsComputed.WithLabelValues("booked").Observe(float64(booked))
}

func (m *Metrics) ObserveDatabase(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// ObserveOutbox records one delivery attempt; attempts counts this one.
func (m *Metrics) ObserveOutbox(eventType string, attempts int, err error) {
	if m == nil {
		return
	}
	if attempts > 1 {
		m.OutboxRetries.WithLabelValues(eventType).Inc()
	}
	if err != nil {
		m.OutboxEventsFailed.Inc()
		return
	}
	m.OutboxEventsProcessed.Inc()
}
