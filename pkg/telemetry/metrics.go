package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce     sync.Once
	metricsInitErr  error
	decisionCounter metric.Int64Counter
	fallbackCounter metric.Int64Counter
)

// GateDecision captures the fields recorded for each request the gate sees.
// Header values and nonces are never included.
type GateDecision struct {
	Mode    string
	Outcome string
}

// RecordGateDecision emits counters describing the gate's per-request
// decisions.
func RecordGateDecision(ctx context.Context, decision GateDecision) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("gate.mode", decision.Mode),
		attribute.String("gate.outcome", decision.Outcome),
	}

	decisionCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if decision.Outcome == "fallback" {
		fallbackCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("pagefort.gate")

		decisionCounter, metricsInitErr = meter.Int64Counter(
			"pagefort.gate.decisions_total",
			metric.WithDescription("Gate decisions partitioned by mode and outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		fallbackCounter, metricsInitErr = meter.Int64Counter(
			"pagefort.gate.fallbacks_total",
			metric.WithDescription("Requests that received the minimal fallback policy"),
			metric.WithUnit("{count}"),
		)
	})

	return metricsInitErr
}
