// Package metrics provides Prometheus metrics for the adjudication engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	ClaimsReceived        prometheus.Counter
	ClaimsFailed          prometheus.Counter
	DecisionsIssued       *prometheus.CounterVec
	AdjudicationDuration  prometheus.Histogram
	DisallowedDollars     prometheus.Counter
	InsurerPaidDollars    prometheus.Counter
	ManualReviewQueued    prometheus.Counter
	KafkaMessagesProduced prometheus.Counter
	KafkaMessagesConsumed prometheus.Counter
	OutboxPending         prometheus.Gauge
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		ClaimsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claims_received_total",
			Help: "Total claims received for adjudication",
		}),
		ClaimsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claims_failed_total",
			Help: "Total claims that could not be adjudicated",
		}),
		DecisionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "decisions_issued_total",
			Help: "Total decisions issued, by decision type",
		}, []string{"decision_type"}),
		AdjudicationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "claim_adjudication_duration_seconds",
			Help:    "Claim adjudication duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		DisallowedDollars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "disallowed_dollars_total",
			Help: "Total dollars disallowed across all decisions",
		}),
		InsurerPaidDollars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insurer_paid_dollars_total",
			Help: "Total dollars payable by the insurer across all decisions",
		}),
		ManualReviewQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "manual_review_queued_total",
			Help: "Total decisions flagged for manual review",
		}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.ClaimsReceived,
		m.ClaimsFailed,
		m.DecisionsIssued,
		m.AdjudicationDuration,
		m.DisallowedDollars,
		m.InsurerPaidDollars,
		m.ManualReviewQueued,
		m.KafkaMessagesProduced,
		m.KafkaMessagesConsumed,
		m.OutboxPending,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
