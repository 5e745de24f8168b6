package broker

import "sort"

// Args carries the named arguments of one emit call to every matched
// subscriber.
type Args map[string]any

// Params is a declared set of argument names. A nil Params means the
// subscriber is unconstrained and accepts any argument set, the analogue of a
// catch-all keyword parameter.
type Params map[string]struct{}

// NewParams builds a parameter set from names. The result is never nil: zero
// names declare a subscriber that accepts no arguments at all, which is not
// the same as being unconstrained.
func NewParams(names ...string) Params {
	p := make(Params, len(names))
	for _, name := range names {
		p[name] = struct{}{}
	}
	return p
}

// paramsOf extracts the provided argument names of an emit call.
func paramsOf(args Args) Params {
	p := make(Params, len(args))
	for name := range args {
		p[name] = struct{}{}
	}
	return p
}

// Equal reports order-independent set equality.
func (p Params) Equal(other Params) bool {
	if len(p) != len(other) {
		return false
	}
	for name := range p {
		if _, ok := other[name]; !ok {
			return false
		}
	}
	return true
}

// Names returns the parameter names in sorted order, for stable error
// messages and dumps.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
