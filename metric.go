package broker

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	spanKeyEmitID    = "emit.id"
	spanKeyNamespace = "event.namespace"
	spanKeyBroker    = "event.broker"
)

// instruments bundles the broker's OpenTelemetry counters
type instruments struct {
	emitted    metric.Int64Counter
	delivered  metric.Int64Counter
	subscribed metric.Int64Counter
	dropped    metric.Int64Counter
}

func newInstruments(name string) *instruments {
	meter := otel.Meter(name)
	emitted, _ := meter.Int64Counter("broker.emitted",
		metric.WithDescription("Total number of emit calls"),
		metric.WithUnit("{event}"))
	delivered, _ := meter.Int64Counter("broker.delivered",
		metric.WithDescription("Total number of handler invocations"),
		metric.WithUnit("{delivery}"))
	subscribed, _ := meter.Int64Counter("broker.subscribed",
		metric.WithDescription("Total number of registrations"),
		metric.WithUnit("{subscription}"))
	dropped, _ := meter.Int64Counter("broker.notifications_dropped",
		metric.WithDescription("Notifications dropped by the rate limiter"),
		metric.WithUnit("{notification}"))
	return &instruments{
		emitted:    emitted,
		delivered:  delivered,
		subscribed: subscribed,
		dropped:    dropped,
	}
}

func (m *instruments) Emitted(ctx context.Context, namespace string) {
	m.emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("namespace", namespace)))
}

func (m *instruments) Delivered(ctx context.Context, namespace string) {
	m.delivered.Add(ctx, 1, metric.WithAttributes(attribute.String("namespace", namespace)))
}

func (m *instruments) Subscribed(ctx context.Context, namespace string) {
	m.subscribed.Add(ctx, 1, metric.WithAttributes(attribute.String("namespace", namespace)))
}

func (m *instruments) Dropped(ctx context.Context, channel string) {
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}
