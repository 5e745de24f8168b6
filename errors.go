package broker

import (
	"errors"
	"fmt"
)

// Broker errors
var (
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrArgumentMismatch  = errors.New("argument mismatch")
	ErrHandlerPanic      = errors.New("handler panic")
	ErrNilHandler        = errors.New("handler is required")
)

// SignatureMismatchError is returned by Register when a subscriber's declared
// parameter set conflicts with the expectation already established for its
// namespace.
type SignatureMismatchError struct {
	Namespace string
	Expected  []string
	Declared  []string
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("%v for namespace %q: expected parameters %v, but got %v",
		ErrSignatureMismatch, e.Namespace, e.Expected, e.Declared)
}

func (e *SignatureMismatchError) Unwrap() error {
	return ErrSignatureMismatch
}

// IsSignatureMismatch checks if an error indicates a registration-time
// signature conflict.
func IsSignatureMismatch(err error) bool {
	var sigErr *SignatureMismatchError
	return errors.As(err, &sigErr)
}

// ArgumentMismatchError is returned by Emit and EmitAsync, before any
// subscriber runs, when the provided argument names don't equal the
// expectation of a matching namespace pattern.
type ArgumentMismatchError struct {
	Namespace string
	Pattern   string
	Expected  []string
	Provided  []string
}

func (e *ArgumentMismatchError) Error() string {
	return fmt.Sprintf("%v when emitting to %q: subscribers in %q expect %v, but got %v",
		ErrArgumentMismatch, e.Namespace, e.Pattern, e.Expected, e.Provided)
}

func (e *ArgumentMismatchError) Unwrap() error {
	return ErrArgumentMismatch
}

// IsArgumentMismatch checks if an error indicates an emit-time argument
// conflict.
func IsArgumentMismatch(err error) bool {
	var argErr *ArgumentMismatchError
	return errors.As(err, &argErr)
}

// HandlerPanicError wraps a panic recovered from a subscriber handler when
// recovery is enabled on the broker.
type HandlerPanicError struct {
	Namespace string
	Value     any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("%v in namespace %q: %v", ErrHandlerPanic, e.Namespace, e.Value)
}

func (e *HandlerPanicError) Unwrap() error {
	return ErrHandlerPanic
}
