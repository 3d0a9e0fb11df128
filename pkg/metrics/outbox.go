package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox failure outcomes.
const (
	OutboxRetry    = "retry"
	OutboxTerminal = "terminal"
)

// OutboxMetrics counts relay outcomes per event type.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "outbox",
		Name:      "published_total",
		Help:      "Outbox events relayed to the broker.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "outbox",
		Name:      "failed_total",
		Help:      "Outbox publish failures by outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(published, failed)
	return &OutboxMetrics{published: published, failed: failed}
}

func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (o *OutboxMetrics) IncFailed(eventType, outcome string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
