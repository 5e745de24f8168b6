package broker

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// deadReference is the placeholder descriptor for a released subscriber that
// has not been pruned yet.
const deadReference = "<dead reference>"

// SubscriberInfo describes one registered subscriber in a dump.
type SubscriberInfo struct {
	Label    string `json:"label" msgpack:"label"`
	Priority int    `json:"priority,omitempty" msgpack:"priority,omitempty"`
	Async    bool   `json:"async,omitempty" msgpack:"async,omitempty"`
	Dead     bool   `json:"dead,omitempty" msgpack:"dead,omitempty"`
}

// Descriptor renders the subscriber the way the textual dump shows it:
// the label, the priority when non-default, an async marker, or the dead
// reference placeholder for a released but unpruned entry.
func (s SubscriberInfo) Descriptor() string {
	if s.Dead {
		return deadReference
	}
	var sb strings.Builder
	sb.WriteString(s.Label)
	if s.Priority != 0 {
		fmt.Fprintf(&sb, " [priority=%d]", s.Priority)
	}
	if s.Async {
		sb.WriteString(" [async]")
	}
	return sb.String()
}

// NamespaceInfo groups the subscribers registered under one namespace
// pattern.
type NamespaceInfo struct {
	Namespace   string           `json:"namespace" msgpack:"namespace"`
	Subscribers []SubscriberInfo `json:"subscribers" msgpack:"subscribers"`
}

// Introspection is a point-in-time dump of the broker's registry, namespaces
// sorted for stable output.
type Introspection struct {
	Broker     string          `json:"broker" msgpack:"broker"`
	Namespaces []NamespaceInfo `json:"namespaces" msgpack:"namespaces"`
}

// Introspect snapshots the registry. Use this to inspect broker state for
// debugging or monitoring dashboards.
func (b *Broker) Introspect() *Introspection {
	b.mu.RLock()
	result := &Introspection{
		Broker:     b.name,
		Namespaces: make([]NamespaceInfo, 0, len(b.subscribers)),
	}
	for namespace, subs := range b.subscribers {
		info := NamespaceInfo{
			Namespace:   namespace,
			Subscribers: make([]SubscriberInfo, 0, len(subs)),
		}
		for _, s := range subs {
			info.Subscribers = append(info.Subscribers, SubscriberInfo{
				Label:    s.label,
				Priority: s.priority,
				Async:    s.async,
				Dead:     !s.live(),
			})
		}
		result.Namespaces = append(result.Namespaces, info)
	}
	b.mu.RUnlock()

	sort.Slice(result.Namespaces, func(i, j int) bool {
		return result.Namespaces[i].Namespace < result.Namespaces[j].Namespace
	})
	return result
}

// String renders the dump as indented JSON mapping each namespace to its
// subscriber descriptors.
func (i *Introspection) String() string {
	data := make(map[string][]string, len(i.Namespaces))
	for _, ns := range i.Namespaces {
		descriptors := make([]string, 0, len(ns.Subscribers))
		for _, s := range ns.Subscribers {
			descriptors = append(descriptors, s.Descriptor())
		}
		data[ns.Namespace] = descriptors
	}
	out, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

// MarshalBinary encodes the dump as MessagePack for monitoring pipelines that
// prefer a compact binary form over the JSON text.
func (i *Introspection) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(i)
}

// UnmarshalBinary decodes a MessagePack dump produced by MarshalBinary.
func (i *Introspection) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, i)
}
