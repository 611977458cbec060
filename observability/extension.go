package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/lambdaswift/store/hook"
	"github.com/lambdaswift/store/id"
)

// meterName is the instrumentation scope name for the metrics extension.
const meterName = "github.com/lambdaswift/store/observability"

// Compile-time interface checks.
var (
	_ hook.Extension                  = (*MetricsExtension[any, any])(nil)
	_ hook.ActionDispatched[any, any] = (*MetricsExtension[any, any])(nil)
	_ hook.StateChanged[any]          = (*MetricsExtension[any, any])(nil)
	_ hook.EffectLaunched[any]        = (*MetricsExtension[any, any])(nil)
	_ hook.TaskCancelled              = (*MetricsExtension[any, any])(nil)
)

// MetricsExtension records store-wide lifecycle metrics via OpenTelemetry.
// Register it as a store extension to automatically track dispatch rates,
// state transitions, and effect task launches/cancellations.
type MetricsExtension[S, A any] struct {
	dispatches     metric.Int64Counter
	stateChanges   metric.Int64Counter
	tasksLaunched  metric.Int64Counter
	tasksCancelled metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider. With no provider configured, the instruments are noop.
func NewMetricsExtension[S, A any]() *MetricsExtension[S, A] {
	return NewMetricsExtensionWithMeter[S, A](otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. Use for testing or when multiple providers are in use.
func NewMetricsExtensionWithMeter[S, A any](meter metric.Meter) *MetricsExtension[S, A] {
	// Instrument creation errors fall back to noop instruments.
	dispatches, _ := meter.Int64Counter(
		"store.dispatches",
		metric.WithDescription("Total number of dispatched actions"),
		metric.WithUnit("{action}"),
	)
	stateChanges, _ := meter.Int64Counter(
		"store.state_changes",
		metric.WithDescription("Total number of completed state transitions"),
		metric.WithUnit("{transition}"),
	)
	tasksLaunched, _ := meter.Int64Counter(
		"store.tasks.launched",
		metric.WithDescription("Total number of launched effect tasks"),
		metric.WithUnit("{task}"),
	)
	tasksCancelled, _ := meter.Int64Counter(
		"store.tasks.cancelled",
		metric.WithDescription("Total number of cancelled effect tasks"),
		metric.WithUnit("{task}"),
	)

	return &MetricsExtension[S, A]{
		dispatches:     dispatches,
		stateChanges:   stateChanges,
		tasksLaunched:  tasksLaunched,
		tasksCancelled: tasksCancelled,
	}
}

// Name implements hook.Extension.
func (m *MetricsExtension[S, A]) Name() string { return "observability-metrics" }

// OnActionDispatched implements hook.ActionDispatched.
func (m *MetricsExtension[S, A]) OnActionDispatched(ctx context.Context, _ A, _ S) error {
	m.dispatches.Add(ctx, 1)
	return nil
}

// OnStateChanged implements hook.StateChanged.
func (m *MetricsExtension[S, A]) OnStateChanged(ctx context.Context, _, _ S) error {
	m.stateChanges.Add(ctx, 1)
	return nil
}

// OnEffectLaunched implements hook.EffectLaunched.
func (m *MetricsExtension[S, A]) OnEffectLaunched(ctx context.Context, _ id.TaskID, _ A) error {
	m.tasksLaunched.Add(ctx, 1)
	return nil
}

// OnTaskCancelled implements hook.TaskCancelled.
func (m *MetricsExtension[S, A]) OnTaskCancelled(ctx context.Context, _ id.TaskID) error {
	m.tasksCancelled.Add(ctx, 1)
	return nil
}
