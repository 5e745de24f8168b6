package broker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultName is used when New is called with an empty name. The name tags
// the broker's logger, meter and tracer.
var DefaultName = "broker"

// NewID generates a new unique ID
func NewID() string {
	return uuid.NewString()
}

// Broker is the event coordinator: a registry of namespace patterns to
// subscribers with per-namespace signature expectations, dispatching emitted
// events to every matching subscriber in priority order.
//
// A Broker is safe for concurrent use. Construct one with New and pass it by
// reference to every component that needs it; the zero value is not usable.
type Broker struct {
	id              string
	name            string
	logger          *slog.Logger
	tracingEnabled  bool
	metricsEnabled  bool
	recoveryEnabled bool
	metrics         *instruments
	limiter         *rate.Limiter

	mu          sync.RWMutex
	seq         uint64
	subscribers map[string][]*subscriber
	signatures  map[string]Params
	flags       NotifyFlags
}

// New creates a broker.
func New(name string, opts ...Option) *Broker {
	o := newOptions(opts...)

	if name == "" {
		name = DefaultName
	}

	b := &Broker{
		id:              NewID(),
		name:            name,
		logger:          o.logger.With("component", "broker>"+name),
		tracingEnabled:  o.tracingEnabled,
		metricsEnabled:  o.metricsEnabled,
		recoveryEnabled: o.recoveryEnabled,
		subscribers:     make(map[string][]*subscriber),
		signatures:      make(map[string]Params),
	}
	if o.metricsEnabled {
		b.metrics = newInstruments(name)
	}
	if o.notifyLimit != rate.Inf {
		b.limiter = rate.NewLimiter(o.notifyLimit, o.notifyBurst)
	}
	return b
}

// ID returns the broker ID
func (b *Broker) ID() string {
	return b.id
}

// Name returns the broker name
func (b *Broker) Name() string {
	return b.name
}

// Logger returns the broker logger
func (b *Broker) Logger() *slog.Logger {
	return b.logger
}

// Register binds a handler to a namespace pattern and returns the owning
// Subscription handle.
//
// The pattern is either an exact namespace ("system.io.file_open") or a
// wildcard ("system.*") covering the root and all descendants. Returns a
// SignatureMismatchError when the declared parameter set conflicts with the
// expectation already established for the pattern.
func (b *Broker) Register(namespace string, h Handler, opts ...SubscribeOption) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	o := newSubscribeOptions(opts...)

	label := o.label
	if label == "" {
		label = handlerLabel(h)
	}
	sub := &subscriber{
		id:        NewID(),
		namespace: namespace,
		label:     label,
		priority:  o.priority,
		async:     o.async,
		key:       handlerKey(h),
		handler:   h,
	}

	// Arm the owner cleanup before the subscriber is published: once the entry
	// is in the registry other goroutines read its cleanup handle under the
	// lock, so it must be complete by then.
	sp := &Subscription{broker: b, sub: sub}
	if o.attachOwner != nil {
		cleanup := o.attachOwner(sp.Release)
		sub.cleanup = &cleanup
	}

	b.mu.Lock()
	expected, known := b.signatures[namespace]
	switch {
	case !known:
		b.signatures[namespace] = o.params
	case expected == nil || o.params == nil:
		// Either side unconstrained widens the namespace for good.
		b.signatures[namespace] = nil
	case !expected.Equal(o.params):
		b.mu.Unlock()
		if sub.cleanup != nil {
			sub.cleanup.Stop()
		}
		return nil, &SignatureMismatchError{
			Namespace: namespace,
			Expected:  expected.Names(),
			Declared:  o.params.Names(),
		}
	}

	_, existed := b.subscribers[namespace]
	sub.seq = b.seq
	b.seq++
	b.subscribers[namespace] = append(b.subscribers[namespace], sub)
	flags := b.flags
	b.mu.Unlock()

	b.logger.Debug("registered subscriber",
		"namespace", namespace, "subscription", sub.id, "priority", sub.priority, "async", sub.async)
	if b.metricsEnabled {
		b.metrics.Subscribed(context.Background(), namespace)
	}

	if !reservedNamespace(namespace) {
		if !existed && flags.OnNamespaceCreated {
			b.notify(NotifyNamespaceCreated, namespace)
		}
		if flags.OnSubscribe {
			b.notify(NotifySubscriberAdded, namespace)
		}
	}
	return sp, nil
}

// Unregister removes every subscription of h under the namespace pattern.
// It is a no-op if no such subscriber exists. Handler identity is the
// function's code pointer, so distinct closures built from the same function
// literal share an identity and are removed together; prefer
// Subscription.Release to remove one precise registration.
func (b *Broker) Unregister(namespace string, h Handler) {
	if h == nil {
		return
	}
	key := handlerKey(h)

	b.mu.Lock()
	removed, deleted := b.removeLocked(namespace, func(s *subscriber) bool {
		return s.key == key
	})
	flags := b.flags
	b.mu.Unlock()

	if removed == 0 {
		return
	}
	b.logger.Debug("unregistered subscriber", "namespace", namespace, "removed", removed)
	if !reservedNamespace(namespace) {
		if flags.OnUnsubscribe {
			b.notify(NotifySubscriberRemoved, namespace)
		}
		if deleted && flags.OnNamespaceDeleted {
			b.notify(NotifyNamespaceDeleted, namespace)
		}
	}
}

// collect prunes one released subscriber. It is the target of
// Subscription.Release and of the owner cleanup armed by WithOwner.
func (b *Broker) collect(sub *subscriber) {
	// Dead before pruning: an in-flight emit holding a snapshot skips it.
	sub.die()

	b.mu.Lock()
	removed, deleted := b.removeLocked(sub.namespace, func(s *subscriber) bool {
		return s == sub
	})
	flags := b.flags
	b.mu.Unlock()

	if removed == 0 {
		return
	}
	b.logger.Debug("collected subscriber", "namespace", sub.namespace, "subscription", sub.id)
	if !reservedNamespace(sub.namespace) {
		if flags.OnCollected {
			b.notify(NotifySubscriberCollected, sub.namespace)
		}
		if deleted && flags.OnNamespaceDeleted {
			b.notify(NotifyNamespaceDeleted, sub.namespace)
		}
	}
}

// removeLocked filters the namespace entry with pred, cascading the registry
// entry and its signature expectation when the last subscriber goes. Caller
// holds the write lock.
func (b *Broker) removeLocked(namespace string, pred func(*subscriber) bool) (removed int, deleted bool) {
	subs, ok := b.subscribers[namespace]
	if !ok {
		return 0, false
	}
	kept := subs[:0]
	for _, s := range subs {
		if pred(s) {
			s.die()
			if s.cleanup != nil {
				s.cleanup.Stop()
			}
			removed++
			continue
		}
		kept = append(kept, s)
	}
	if removed == 0 {
		return 0, false
	}
	if len(kept) == 0 {
		delete(b.subscribers, namespace)
		delete(b.signatures, namespace)
		return removed, true
	}
	b.subscribers[namespace] = kept
	return removed, false
}

// Clear resets all registry, signature and notification-flag state.
// Primarily for test isolation.
func (b *Broker) Clear() {
	b.mu.Lock()
	for _, subs := range b.subscribers {
		for _, s := range subs {
			s.die()
			if s.cleanup != nil {
				s.cleanup.Stop()
			}
		}
	}
	b.subscribers = make(map[string][]*subscriber)
	b.signatures = make(map[string]Params)
	b.flags = NotifyFlags{}
	b.seq = 0
	b.mu.Unlock()
}
