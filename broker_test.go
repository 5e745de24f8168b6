package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"syreclabs.com/go/faker"
)

func init() {
	faker.Seed(time.Now().UnixNano())
}

// discard is a handler that does nothing.
func discard(context.Context, Args) error { return nil }

func TestRegisterEqualParamSets(t *testing.T) {
	b := New("test")
	if _, err := b.Register("system.test", discard, WithParams("filename", "size")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	// Declaration order must not matter.
	if _, err := b.Register("system.test", discard, WithParams("size", "filename")); err != nil {
		t.Errorf("equal param set rejected: %v", err)
	}
}

func TestRegisterSignatureMismatch(t *testing.T) {
	b := New("test")
	if _, err := b.Register("system.test", discard, WithParams("filename", "size")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := b.Register("system.test", discard, WithParams("filename", "mode"))
	if err == nil {
		t.Fatal("differing param set accepted")
	}
	if !IsSignatureMismatch(err) || !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("wrong error type: %v", err)
	}
	var sigErr *SignatureMismatchError
	if !errors.As(err, &sigErr) {
		t.Fatalf("not a SignatureMismatchError: %v", err)
	}
	if sigErr.Namespace != "system.test" {
		t.Errorf("namespace = %q, want %q", sigErr.Namespace, "system.test")
	}
	if len(sigErr.Expected) != 2 || len(sigErr.Declared) != 2 {
		t.Errorf("error should report both sets, got %v / %v", sigErr.Expected, sigErr.Declared)
	}
}

func TestUnconstrainedWideningIsPermanent(t *testing.T) {
	b := New("test")
	if _, err := b.Register("system.test", discard, WithParams("a")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	// No WithParams declares the catch-all analogue and widens the namespace.
	wide, err := b.Register("system.test", discard)
	if err != nil {
		t.Fatalf("unconstrained register failed: %v", err)
	}
	if _, err := b.Register("system.test", discard, WithParams("b")); err != nil {
		t.Errorf("widened namespace rejected incompatible set: %v", err)
	}
	// Removing the unconstrained subscriber must not narrow it back.
	wide.Release()
	if _, err := b.Register("system.test", discard, WithParams("c")); err != nil {
		t.Errorf("widening did not survive removal: %v", err)
	}
}

func TestExpectationResetsWithNamespace(t *testing.T) {
	b := New("test")
	sub, err := b.Register("system.test", discard, WithParams("a"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	sub.Release()
	// Last subscriber gone, the expectation cascaded away with the namespace.
	if _, err := b.Register("system.test", discard, WithParams("b", "c")); err != nil {
		t.Errorf("fresh namespace rejected new expectation: %v", err)
	}
}

func TestRegisterNilHandler(t *testing.T) {
	b := New("test")
	if _, err := b.Register("system.test", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	b := New("test")
	b.Unregister("never.registered", discard)

	if _, err := b.Register("system.test", discard); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	other := func(context.Context, Args) error { return nil }
	b.Unregister("system.test", other)
	if got := len(b.Introspect().Namespaces); got != 1 {
		t.Errorf("unrelated unregister mutated registry, %d namespaces", got)
	}
}

func TestUnregisterRemovesAllOfHandler(t *testing.T) {
	b := New("test")
	if _, err := b.Register("system.test", discard); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := b.Register("system.test", discard, WithPriority(3)); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	b.Unregister("system.test", discard)
	if got := len(b.Introspect().Namespaces); got != 0 {
		t.Errorf("expected empty registry, got %d namespaces", got)
	}
}

func TestUnregisterRemovesSiblingClosures(t *testing.T) {
	b := New("test")
	handler := func(counter *int) Handler {
		return func(context.Context, Args) error {
			*counter++
			return nil
		}
	}
	var a, c int
	if _, err := b.Register("system.test", handler(&a)); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := b.Register("system.test", handler(&c)); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Closures from the same literal share a code pointer: unregistering with
	// a third sibling removes both.
	b.Unregister("system.test", handler(new(int)))
	if got := len(b.Introspect().Namespaces); got != 0 {
		t.Errorf("sibling closures survived unregister: %d namespaces", got)
	}
}

func TestClear(t *testing.T) {
	b := New("test")
	b.SetNotifyFlags(NotifyFlags{OnSubscribe: true})
	if _, err := b.Register("system.test", discard, WithParams("a")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	b.Clear()

	if got := len(b.Introspect().Namespaces); got != 0 {
		t.Errorf("registry not empty after Clear: %d namespaces", got)
	}
	// Signatures cleared too: an incompatible set registers cleanly.
	if _, err := b.Register("system.test", discard, WithParams("b")); err != nil {
		t.Errorf("signature state survived Clear: %v", err)
	}
	// Flags cleared: the registration above must not notify.
	var seen []string
	if _, err := b.Register(NotifySubscriberAdded, func(ctx context.Context, args Args) error {
		seen = append(seen, args[NotifyArg].(string))
		return nil
	}, WithParams(NotifyArg)); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := b.Register("another.event", discard); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("notify flags survived Clear: %v", seen)
	}
}
