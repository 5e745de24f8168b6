package broker

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Emit dispatches an event to all matching synchronous subscribers, in
// descending priority order with registration order breaking ties.
// Asynchronous subscribers are skipped entirely, never deferred; use
// EmitAsync to reach them.
//
// The provided argument names are validated against every matching namespace
// pattern before anyone runs. A handler error (or recovered panic) aborts the
// remaining fan-out of this call and is returned. Emitting to a namespace
// nobody matches is a no-op.
func (b *Broker) Emit(ctx context.Context, namespace string, args Args) error {
	return b.emit(ctx, namespace, args, false)
}

// EmitAsync dispatches an event to all matching subscribers in one priority
// order, regardless of their sync/async tag. Synchronous handlers run inline;
// asynchronous ones are awaited to completion before advancing to the next.
// The call returns only once the last subscriber has finished.
//
// Validation and error semantics are identical to Emit.
func (b *Broker) EmitAsync(ctx context.Context, namespace string, args Args) error {
	return b.emit(ctx, namespace, args, true)
}

func (b *Broker) emit(ctx context.Context, namespace string, args Args, includeAsync bool) error {
	provided := paramsOf(args)

	// Validate against every matching pattern and fix the subscriber set in
	// one pass under the read lock. The snapshot is not re-queried
	// mid-iteration: mutations from interleaved work affect later calls only.
	b.mu.RLock()
	var matched []*subscriber
	for pattern, subs := range b.subscribers {
		if !Matches(namespace, pattern) {
			continue
		}
		if expected, ok := b.signatures[pattern]; ok && expected != nil && !expected.Equal(provided) {
			b.mu.RUnlock()
			return &ArgumentMismatchError{
				Namespace: namespace,
				Pattern:   pattern,
				Expected:  expected.Names(),
				Provided:  provided.Names(),
			}
		}
		matched = append(matched, subs...)
	}
	flags := b.flags
	b.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].priority != matched[j].priority {
			return matched[i].priority > matched[j].priority
		}
		return matched[i].seq < matched[j].seq
	})

	emitID := NewID()
	if b.tracingEnabled {
		suffix := ".emit"
		if includeAsync {
			suffix = ".emit_async"
		}
		tracer := otel.Tracer(b.name)
		var span trace.Span
		ctx, span = tracer.Start(ctx, namespace+suffix,
			trace.WithAttributes(
				attribute.String(spanKeyEmitID, emitID),
				attribute.String(spanKeyNamespace, namespace),
				attribute.String(spanKeyBroker, b.name)),
			trace.WithSpanKind(trace.SpanKindProducer))
		defer span.End()
	}
	if b.metricsEnabled {
		b.metrics.Emitted(ctx, namespace)
	}

	for _, sub := range matched {
		if !sub.live() {
			// Collected since the snapshot was taken, skip silently.
			continue
		}
		if sub.async && !includeAsync {
			continue
		}
		hctx := contextWithDispatch(ctx, b, namespace, emitID, sub)
		var err error
		if sub.async {
			err = b.await(hctx, sub, args)
		} else {
			err = b.invoke(hctx, sub, args)
		}
		if err != nil {
			return err
		}
		if b.metricsEnabled {
			b.metrics.Delivered(ctx, namespace)
		}
	}

	if !reservedNamespace(namespace) {
		if includeAsync {
			if flags.OnEmitAsync {
				b.notify(NotifyEmitAsync, namespace)
			}
		} else if flags.OnEmit {
			b.notify(NotifyEmit, namespace)
		}
		if flags.OnEmitAll {
			b.notify(NotifyEmitAll, namespace)
		}
	}
	return nil
}

// invoke runs a synchronous handler inline.
func (b *Broker) invoke(ctx context.Context, sub *subscriber, args Args) (err error) {
	if b.recoveryEnabled {
		defer func() {
			if r := recover(); r != nil {
				b.logHandlerPanic(sub, r, debug.Stack())
				err = &HandlerPanicError{Namespace: sub.namespace, Value: r}
			}
		}()
	}
	return sub.handler(ctx, args)
}

type awaitResult struct {
	err      error
	panicked bool
	panicVal any
	stack    []byte
}

// await runs an asynchronous handler in its own goroutine and blocks until
// its result is available. A panic with recovery disabled is re-raised on the
// caller's goroutine, matching the inline path.
func (b *Broker) await(ctx context.Context, sub *subscriber, args Args) error {
	done := make(chan awaitResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- awaitResult{panicked: true, panicVal: r, stack: debug.Stack()}
			}
		}()
		done <- awaitResult{err: sub.handler(ctx, args)}
	}()
	res := <-done
	if res.panicked {
		if !b.recoveryEnabled {
			panic(res.panicVal)
		}
		b.logHandlerPanic(sub, res.panicVal, res.stack)
		return &HandlerPanicError{Namespace: sub.namespace, Value: res.panicVal}
	}
	return res.err
}

func (b *Broker) logHandlerPanic(sub *subscriber, value any, stack []byte) {
	b.logger.Error("handler panic recovered",
		slog.String("namespace", sub.namespace),
		slog.String("subscription", sub.id),
		slog.Any("error", value),
		slog.String("stack", string(stack)))
}
