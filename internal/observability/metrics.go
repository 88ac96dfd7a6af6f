// Package observability registers the service's Prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	admissionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventreg",
		Subsystem: "admission",
		Name:      "attempts_total",
		Help:      "Enrollment attempts grouped by outcome code.",
	}, []string{"outcome"})

	transitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventreg",
		Subsystem: "review",
		Name:      "transitions_total",
		Help:      "Review transitions grouped by entity kind, action and outcome.",
	}, []string{"kind", "action", "outcome"})

	ledgerCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventreg",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Capacity ledger operations grouped by operation and result.",
	}, []string{"op", "result"})

	storageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventreg",
		Subsystem: "storage",
		Name:      "failures_total",
		Help:      "Storage failures surfaced to callers, by operation.",
	}, []string{"op"})

	unitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eventreg",
		Subsystem: "storage",
		Name:      "unit_of_work_seconds",
		Help:      "Duration of admission and review units of work.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	outboxDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventreg",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Review events delivered to the broker.",
	})

	outboxFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventreg",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Review events whose delivery failed and were returned to the queue.",
	})
)

func init() {
	prometheus.MustRegister(
		admissionCounter,
		transitionCounter,
		ledgerCounter,
		storageFailures,
		unitDuration,
		outboxDelivered,
		outboxFailed,
	)
}

func RecordAdmission(outcome string) {
	admissionCounter.WithLabelValues(outcome).Inc()
}

func RecordTransition(kind, action, outcome string) {
	transitionCounter.WithLabelValues(kind, action, outcome).Inc()
}

func RecordLedger(op, result string) {
	ledgerCounter.WithLabelValues(op, result).Inc()
}

func RecordStorageFailure(op string) {
	storageFailures.WithLabelValues(op).Inc()
}

func ObserveUnit(op string, start time.Time) {
	unitDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func RecordOutbox(delivered, failed int) {
	outboxDelivered.Add(float64(delivered))
	outboxFailed.Add(float64(failed))
}
