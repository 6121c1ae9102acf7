package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentdispatch"

// Metrics holds all dispatch pipeline metric instruments.
type Metrics struct {
	EventsReceived      metric.Int64Counter
	EventsIgnored       metric.Int64Counter
	Dispatched          metric.Int64Counter
	DispatchFailed      metric.Int64Counter
	DuplicateDeliveries metric.Int64Counter
	NotifyFailures      metric.Int64Counter
	DispatchDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.EventsReceived, err = meter.Int64Counter("agentdispatch.events.received",
		metric.WithDescription("Number of issue events received"))
	if err != nil {
		return nil, err
	}

	m.EventsIgnored, err = meter.Int64Counter("agentdispatch.events.ignored",
		metric.WithDescription("Number of issue events with non-dispatching actions"))
	if err != nil {
		return nil, err
	}

	m.Dispatched, err = meter.Int64Counter("agentdispatch.dispatched",
		metric.WithDescription("Number of successful platform dispatches"))
	if err != nil {
		return nil, err
	}

	m.DispatchFailed, err = meter.Int64Counter("agentdispatch.dispatch.failed",
		metric.WithDescription("Number of failed platform dispatches"))
	if err != nil {
		return nil, err
	}

	m.DuplicateDeliveries, err = meter.Int64Counter("agentdispatch.duplicate_deliveries",
		metric.WithDescription("Number of repeated deliveries observed for the same issue"))
	if err != nil {
		return nil, err
	}

	m.NotifyFailures, err = meter.Int64Counter("agentdispatch.notify.failures",
		metric.WithDescription("Number of failed issue tracker write-backs"))
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("agentdispatch.dispatch.duration_seconds",
		metric.WithDescription("Platform dispatch duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
