package broker

import (
	"log/slog"
	"runtime"

	"golang.org/x/time/rate"
)

// options holds configuration for the broker (unexported)
type options struct {
	logger          *slog.Logger
	tracingEnabled  bool
	metricsEnabled  bool
	recoveryEnabled bool
	notifyLimit     rate.Limit
	notifyBurst     int
}

// Option option function for broker configuration
type Option func(*options)

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		logger:          slog.Default(),
		tracingEnabled:  true,
		metricsEnabled:  true,
		recoveryEnabled: true,
		notifyLimit:     rate.Inf,
		notifyBurst:     0,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the broker
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracing enables/disables OpenTelemetry tracing for emits
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables/disables OpenTelemetry metrics
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithRecovery enables/disables panic recovery in handlers.
// Recovery should stay enabled, can be disabled for testing.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recoveryEnabled = enabled
	}
}

// WithNotifyLimit rate-limits the self-observability notifications. A
// notification that exceeds the limit is dropped with a warning, never
// queued. The default is no limit.
func WithNotifyLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.notifyLimit = limit
		o.notifyBurst = burst
	}
}

// subscribeOptions holds configuration for one registration (unexported)
type subscribeOptions struct {
	priority    int
	async       bool
	params      Params
	label       string
	attachOwner func(release func()) runtime.Cleanup
}

// SubscribeOption option function for registration configuration
type SubscribeOption func(*subscribeOptions)

// newSubscribeOptions creates registration options with defaults.
// A registration that never declares parameters is unconstrained.
func newSubscribeOptions(opts ...SubscribeOption) *subscribeOptions {
	o := &subscribeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPriority sets the execution priority. Higher priorities run before
// lower priorities. Default is 0.
func WithPriority(priority int) SubscribeOption {
	return func(o *subscribeOptions) {
		o.priority = priority
	}
}

// AsAsync tags the subscription asynchronous: skipped by Emit, awaited to
// completion by EmitAsync.
func AsAsync() SubscribeOption {
	return func(o *subscribeOptions) {
		o.async = true
	}
}

// WithParams declares the argument names the handler accepts. The first
// declaration for a namespace becomes its expectation; later registrations
// must match it exactly. Calling WithParams with no names declares a handler
// that accepts no arguments, which is still a constraint. Omitting WithParams
// entirely leaves the subscriber unconstrained and permanently widens its
// namespace.
func WithParams(names ...string) SubscribeOption {
	return func(o *subscribeOptions) {
		o.params = NewParams(names...)
	}
}

// WithLabel overrides the introspection label, which otherwise derives from
// the handler's function name.
func WithLabel(label string) SubscribeOption {
	return func(o *subscribeOptions) {
		if label != "" {
			o.label = label
		}
	}
}

// WithOwner ties the subscription's lifetime to owner: when owner becomes
// unreachable, the subscription is released as if Release had been called.
//
// The broker holds the handler strongly, so a handler that captures owner
// keeps it reachable and the cleanup never fires; such owners must call
// Release explicitly. Pass the owner as a lifetime token and read state from
// the handler's context or arguments instead.
func WithOwner[T any](owner *T) SubscribeOption {
	return func(o *subscribeOptions) {
		o.attachOwner = func(release func()) runtime.Cleanup {
			return runtime.AddCleanup(owner, func(_ struct{}) { release() }, struct{}{})
		}
	}
}
