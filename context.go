package broker

import (
	"context"
	"log/slog"
)

const (
	dispatchContextKey contextKey = iota
)

// contextKey
type contextKey int

type dispatchContextData struct {
	namespace string
	pattern   string
	emitID    string
	subID     string
	logger    *slog.Logger
	broker    *Broker
}

// ContextNamespace get the emitted namespace stored in a handler context
func ContextNamespace(ctx context.Context) string {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok {
		return d.namespace
	}
	return ""
}

// ContextPattern get the subscription pattern that matched the emit
func ContextPattern(ctx context.Context) string {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok {
		return d.pattern
	}
	return ""
}

// ContextEmitID get the emit call ID stored in a handler context
func ContextEmitID(ctx context.Context) string {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok {
		return d.emitID
	}
	return ""
}

// ContextSubscriptionID get the subscription ID stored in a handler context
func ContextSubscriptionID(ctx context.Context) string {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok {
		return d.subID
	}
	return ""
}

// ContextLogger get the broker logger stored in a handler context.
// Falls back to slog.Default so handlers can always log.
func ContextLogger(ctx context.Context) *slog.Logger {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok && d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// ContextBroker get the broker that dispatched the event. Handlers can use it
// to emit follow-up events without holding a reference of their own.
func ContextBroker(ctx context.Context) *Broker {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok {
		return d.broker
	}
	return nil
}

func contextWithDispatch(ctx context.Context, b *Broker, namespace, emitID string, sub *subscriber) context.Context {
	return context.WithValue(ctx, dispatchContextKey, &dispatchContextData{
		namespace: namespace,
		pattern:   sub.namespace,
		emitID:    emitID,
		subID:     sub.id,
		logger:    b.logger,
		broker:    b,
	})
}
