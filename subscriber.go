package broker

import (
	"context"
	"reflect"
	"runtime"
	"sync/atomic"
)

// Handler is the end point event arguments are forwarded to. Handlers are
// invoked in priority order; a returned error propagates to the emit caller
// and aborts the remaining fan-out of that call.
//
// The broker never collects a handler's result beyond the error. To send data
// back to an emitter, register an event going the opposite direction.
type Handler func(ctx context.Context, args Args) error

// subscriber is one registry entry: a handler bound to a namespace pattern
// with a priority and a sync/async tag.
type subscriber struct {
	id        string
	namespace string
	label     string
	priority  int
	async     bool
	seq       uint64
	key       uintptr
	handler   Handler
	released  atomic.Bool
	cleanup   *runtime.Cleanup
}

// live reports whether the entry still resolves to a callable handler.
// Dispatch skips dead entries silently.
func (s *subscriber) live() bool {
	return !s.released.Load()
}

// die marks the entry dead. Returns false if it already was.
func (s *subscriber) die() bool {
	return s.released.CompareAndSwap(false, true)
}

// handlerKey is the identity used by Unregister: the handler's code pointer.
// Registrations of the same function value share a key, so unregistering a
// function removes every subscription made with it, like the original
// identity filter. Subscription.Release is the precise removal path.
func handlerKey(h Handler) uintptr {
	return reflect.ValueOf(h).Pointer()
}

// handlerLabel derives an introspection label from the handler's function
// name.
func handlerLabel(h Handler) string {
	if fn := runtime.FuncForPC(handlerKey(h)); fn != nil {
		return fn.Name()
	}
	return "<unknown>"
}

// Subscription is the owning handle of one registered subscriber. The broker
// references the subscriber through this handle without extending the
// lifetime of its owner: release the handle and the entry is gone.
type Subscription struct {
	broker   *Broker
	sub      *subscriber
	released atomic.Bool
}

// ID returns the subscription ID.
func (s *Subscription) ID() string {
	return s.sub.id
}

// Namespace returns the namespace pattern the subscription is bound to.
func (s *Subscription) Namespace() string {
	return s.sub.namespace
}

// Release removes the subscription from the broker. The entry is marked dead
// first, so an in-flight emit that already snapshotted it skips it silently;
// it is then pruned from the registry, firing the subscriber-collected
// notification if enabled. Release is idempotent.
//
// Release is also what WithOwner arms to run when the owner is collected.
// A notification handler may call it on the subscription being collected
// without deadlocking.
func (s *Subscription) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	s.broker.collect(s.sub)
}
