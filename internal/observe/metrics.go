// Package observe provides application-wide observability primitives for the
// interpreter: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all interpreter metrics.
const meterName = "github.com/csml-lang/interpreter"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TurnDuration tracks the wall-clock time of a single Interpret call
	// (one conversation turn, from event in to MessageData out).
	TurnDuration metric.Float64Histogram

	// StepDuration tracks the time spent executing a single step's
	// instruction list.
	StepDuration metric.Float64Histogram

	// ExtensionCallDuration tracks the latency of a single extension
	// invocation (MCP tool call or registered Go func).
	ExtensionCallDuration metric.Float64Histogram

	// --- Counters ---

	// StepTransitions counts goto/hold/end transitions. Use with
	// attributes: attribute.String("kind", ...) where kind is one of
	// "goto_step", "goto_flow", "hold", "end", "fallthrough", "error".
	StepTransitions metric.Int64Counter

	// ExtensionCalls counts extension invocations. Use with attributes:
	//   attribute.String("extension", ...), attribute.String("status", ...)
	ExtensionCalls metric.Int64Counter

	// MessagesEmitted counts messages appended to a turn's MessageData.
	// Use with attribute: attribute.String("content_type", ...)
	MessagesEmitted metric.Int64Counter

	// --- Error counters ---

	// RuntimeErrors counts evaluator errors by kind. Use with attributes:
	//   attribute.String("kind", ...) (e.g. "UnknownStep", "TypeError")
	RuntimeErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveTurns tracks the number of Interpret calls currently in
	// flight.
	ActiveTurns metric.Int64UpDownCounter

	// HeldConversations tracks the number of conversations currently
	// suspended on a Hold, awaiting the next event.
	HeldConversations metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for a single-turn tree-walking interpreter, which runs in microseconds to
// low milliseconds absent a slow extension call.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("csml.turn.duration",
		metric.WithDescription("Latency of a single Interpret call (one conversation turn)."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StepDuration, err = m.Float64Histogram("csml.step.duration",
		metric.WithDescription("Latency of executing a single step's instruction list."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExtensionCallDuration, err = m.Float64Histogram("csml.extension.call.duration",
		metric.WithDescription("Latency of a single extension invocation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.StepTransitions, err = m.Int64Counter("csml.step.transitions",
		metric.WithDescription("Total step/flow transitions by kind (goto_step, goto_flow, hold, end, fallthrough, error)."),
	); err != nil {
		return nil, err
	}
	if met.ExtensionCalls, err = m.Int64Counter("csml.extension.calls",
		metric.WithDescription("Total extension invocations by extension name and status."),
	); err != nil {
		return nil, err
	}
	if met.MessagesEmitted, err = m.Int64Counter("csml.messages.emitted",
		metric.WithDescription("Total messages emitted by content type."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.RuntimeErrors, err = m.Int64Counter("csml.runtime.errors",
		metric.WithDescription("Total runtime errors by kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveTurns, err = m.Int64UpDownCounter("csml.active_turns",
		metric.WithDescription("Number of Interpret calls currently in flight."),
	); err != nil {
		return nil, err
	}
	if met.HeldConversations, err = m.Int64UpDownCounter("csml.held_conversations",
		metric.WithDescription("Number of conversations currently suspended on a hold."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("csml.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordStepTransition is a convenience method that records a step/flow
// transition counter increment.
func (m *Metrics) RecordStepTransition(ctx context.Context, kind string) {
	m.StepTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordExtensionCall is a convenience method that records an extension
// call counter increment with the standard attribute set.
func (m *Metrics) RecordExtensionCall(ctx context.Context, extension, status string) {
	m.ExtensionCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("extension", extension),
			attribute.String("status", status),
		),
	)
}

// RecordMessageEmitted is a convenience method that records a message
// counter increment.
func (m *Metrics) RecordMessageEmitted(ctx context.Context, contentType string) {
	m.MessagesEmitted.Add(ctx, 1,
		metric.WithAttributes(attribute.String("content_type", contentType)),
	)
}

// RecordRuntimeError is a convenience method that records a runtime error
// counter increment.
func (m *Metrics) RecordRuntimeError(ctx context.Context, kind string) {
	m.RuntimeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
