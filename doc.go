// Package broker provides an in-process publish/subscribe coordinator with
// hierarchical, dot-delimited event namespaces.
//
// Components communicate through named channels without holding references to
// each other. There is no transport, persistence, or durability: delivery is
// a synchronous, priority-ordered fan-out inside the current process.
//
// Basic example:
//
//	b := broker.New("app")
//
//	sub, err := b.Register("system.io.file_open",
//	    func(ctx context.Context, args broker.Args) error {
//	        fmt.Println("opened:", args["filename"])
//	        return nil
//	    },
//	    broker.WithParams("filename", "size"),
//	    broker.WithPriority(5))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sub.Release()
//
//	err = b.Emit(ctx, "system.io.file_open", broker.Args{
//	    "filename": "t.txt",
//	    "size":     1024,
//	})
//
// Namespaces:
// A subscription pattern may end in ".*", matching the root and every
// descendant: "system.*" receives "system.io" and "system.io.file_open" but
// not bare "system". Emitted namespaces never carry the wildcard.
//
// Signatures:
// Each registration may declare the argument names it accepts with
// WithParams. The first declaration for a namespace becomes that namespace's
// expectation; later registrations must declare the same set or fail with
// SignatureMismatchError. A registration without WithParams is unconstrained
// and permanently widens its namespace to accept any argument set. Emit
// validates the provided argument names against every matching namespace
// before invoking anyone, failing with ArgumentMismatchError.
//
// Sync and async subscribers:
// A subscription tagged with AsAsync is skipped by Emit and only invoked by
// EmitAsync, which runs every matching subscriber in a single priority order,
// awaiting each asynchronous one to completion before advancing. Neither path
// collects return values: the contract is fire-and-forget, and a caller that
// wants data back models an event in the opposite direction.
//
// Self-observability:
// The namespace root "broker.notify." is reserved. When enabled through
// SetNotifyFlags, the broker reports its own activity (subscriber added or
// removed, namespace created or deleted, emits) on fixed channels under that
// root, each notification carrying the affected namespace as the single
// argument "using". Activity under the reserved root never produces further
// notifications.
//
// Broker Options:
//   - WithLogger: set logger for the broker.
//   - WithTracing: enable/disable OpenTelemetry tracing. Default is true.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//   - WithRecovery: enable/disable panic recovery in handlers. Default is true.
//   - WithNotifyLimit: rate-limit notification fan-out. Default is unlimited.
//
// Subscribe Options:
//   - WithPriority: execution priority, higher runs first. Default is 0.
//   - WithParams: declare the accepted argument names.
//   - AsAsync: tag the subscription asynchronous.
//   - WithLabel: override the introspection label.
//   - WithOwner: release the subscription when its owner is collected.
package broker
