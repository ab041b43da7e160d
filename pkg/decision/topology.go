package decision

import (
	"strings"

	"github.com/imartinezt/logistica-front/pkg/prediction"
)

// Topology is the structural class of a route.
type Topology int

const (
	// TopologyDirect ships from the stocked stores straight to the customer.
	TopologyDirect Topology = iota
	// TopologyHubRouted passes through an intermediate hub or CEDIS.
	TopologyHubRouted
	// TopologyMultiSegment chains more than two transport legs.
	TopologyMultiSegment
	// TopologySplit fulfills the order through several delivery options.
	TopologySplit
)

var topologyNames = [...]string{
	TopologyDirect:       "direct",
	TopologyHubRouted:    "hub-routed",
	TopologyMultiSegment: "multi-segment",
	TopologySplit:        "split",
}

func (t Topology) String() string {
	if int(t) >= 0 && int(t) < len(topologyNames) {
		return topologyNames[t]
	}
	return "unknown"
}

// MarshalText encodes the topology by name.
func (t Topology) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a topology name. Unknown names decode as direct.
func (t *Topology) UnmarshalText(b []byte) error {
	*t = TopologyDirect
	for i, name := range topologyNames {
		if name == string(b) {
			*t = Topology(i)
		}
	}
	return nil
}

// hubMarkers are matched against the free-text route label and segment
// destinations.
var hubMarkers = []string{"cedis", "hub", "centro de distribucion", "centro de distribución"}

// Classify determines the topology of r. Rules are evaluated in order:
//
//  1. Several delivery options: split.
//  2. A selected hub, a named intermediate hub, a route label mentioning a
//     hub or CEDIS, or more than one segment ending at a hub: hub-routed.
//     Hub data wins over a label that says otherwise.
//  3. More than two segments: multi-segment.
//  4. Otherwise: direct.
func Classify(r *prediction.Result) Topology {
	switch {
	case r.IsSplit():
		return TopologySplit
	case r.Hubs != nil, r.Logistics.HubName != "", mentionsHub(r.Logistics.RouteKind),
		hubSegmentCount(r.Logistics.Segments) > 1:
		return TopologyHubRouted
	case len(r.Logistics.Segments) > 2:
		return TopologyMultiSegment
	default:
		return TopologyDirect
	}
}

// hubSegmentCount counts segments whose destination is named like a hub.
func hubSegmentCount(segs []prediction.Segment) int {
	n := 0
	for _, s := range segs {
		if mentionsHub(s.Destination) {
			n++
		}
	}
	return n
}

// segmentHubs returns the distinct hub-named segment destinations in route
// order.
func segmentHubs(segs []prediction.Segment) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range segs {
		if mentionsHub(s.Destination) && !seen[s.Destination] {
			seen[s.Destination] = true
			out = append(out, s.Destination)
		}
	}
	return out
}

func mentionsHub(label string) bool {
	label = strings.ToLower(strings.ReplaceAll(label, "_", " "))
	for _, m := range hubMarkers {
		if strings.Contains(label, m) {
			return true
		}
	}
	return false
}
