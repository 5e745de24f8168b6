package broker

import (
	"context"
	"strings"
)

// NotifyRoot is the namespace root reserved for the broker's
// self-observability channels. Client code must not emit or register under it
// for its own events; activity under this root never produces further
// notifications, which is what keeps the feedback loop from recursing.
const NotifyRoot = "broker.notify."

// Reserved notification channels. Every notification carries exactly one
// argument, NotifyArg, holding the namespace the notification concerns.
const (
	NotifySubscriberAdded     = NotifyRoot + "subscriber.added"
	NotifySubscriberRemoved   = NotifyRoot + "subscriber.removed"
	NotifySubscriberCollected = NotifyRoot + "subscriber.collected"
	NotifyEmit                = NotifyRoot + "emit.sync"
	NotifyEmitAsync           = NotifyRoot + "emit.async"
	NotifyEmitAll             = NotifyRoot + "emit.all"
	NotifyNamespaceCreated    = NotifyRoot + "namespace.created"
	NotifyNamespaceDeleted    = NotifyRoot + "namespace.deleted"
)

// NotifyArg is the argument name notifications are delivered under.
const NotifyArg = "using"

// NotifyFlags gates each kind of self-observability notification
// independently. All flags default to off.
type NotifyFlags struct {
	// OnSubscribe reports every registration on NotifySubscriberAdded.
	OnSubscribe bool
	// OnUnsubscribe reports every removal on NotifySubscriberRemoved.
	OnUnsubscribe bool
	// OnCollected reports released subscribers on NotifySubscriberCollected.
	OnCollected bool
	// OnEmit reports Emit calls on NotifyEmit.
	OnEmit bool
	// OnEmitAsync reports EmitAsync calls on NotifyEmitAsync.
	OnEmitAsync bool
	// OnEmitAll reports both emit paths on NotifyEmitAll.
	OnEmitAll bool
	// OnNamespaceCreated reports new namespace entries on NotifyNamespaceCreated.
	OnNamespaceCreated bool
	// OnNamespaceDeleted reports cascaded namespace deletions on NotifyNamespaceDeleted.
	OnNamespaceDeleted bool
}

// SetNotifyFlags replaces the notification flag bundle in one call.
func (b *Broker) SetNotifyFlags(flags NotifyFlags) {
	b.mu.Lock()
	b.flags = flags
	b.mu.Unlock()
}

// reservedNamespace reports whether a namespace falls under the notification
// root. Broker activity there never triggers further notifications.
func reservedNamespace(namespace string) bool {
	return strings.HasPrefix(namespace, NotifyRoot)
}

// notify reports broker activity on a reserved channel through the ordinary
// sync dispatch path, strictly after the triggering mutation has taken
// effect. Handler errors are logged, not propagated to the mutating caller,
// and the optional rate limiter drops excess notifications instead of
// queueing them.
func (b *Broker) notify(channel, using string) {
	ctx := context.Background()
	if b.limiter != nil && !b.limiter.Allow() {
		b.logger.Warn("notification dropped by rate limiter", "channel", channel, "using", using)
		if b.metricsEnabled {
			b.metrics.Dropped(ctx, channel)
		}
		return
	}
	if err := b.Emit(ctx, channel, Args{NotifyArg: using}); err != nil {
		b.logger.Warn("notification handler failed", "channel", channel, "using", using, "error", err)
	}
}
