package broker

import "strings"

// NamespaceSep separates segments of a hierarchical namespace.
const NamespaceSep = "."

// wildcardSuffix on a subscription pattern matches the root and all
// descendants. Only a single trailing wildcard is recognized, and only on
// subscription patterns, never on emitted namespaces.
const wildcardSuffix = NamespaceSep + "*"

// Matches reports whether an emitted namespace is covered by a subscription
// pattern.
//
// Equal strings match. A pattern ending in ".*" matches every namespace that
// extends its root by one or more segments: "a.*" matches "a.b" and "a.b.c"
// but not bare "a".
func Matches(eventNS, patternNS string) bool {
	if eventNS == patternNS {
		return true
	}
	if root, ok := strings.CutSuffix(patternNS, wildcardSuffix); ok {
		return strings.HasPrefix(eventNS, root+NamespaceSep)
	}
	return false
}
