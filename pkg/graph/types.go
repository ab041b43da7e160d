package graph

import (
	"errors"
	"fmt"
)

// Category classifies a node for styling and the legend.
type Category string

// Node categories, in legend order.
const (
	CategoryProduct       Category = "product"
	CategoryStoreStock    Category = "store_with_stock"
	CategoryStoreNoStock  Category = "store_no_stock"
	CategoryHub           Category = "hub"
	CategoryFleetInternal Category = "fleet_internal"
	CategoryFleetExternal Category = "fleet_external"
	CategoryDestination   Category = "destination"
	CategoryWeather       Category = "weather"
	CategoryTraffic       Category = "traffic"
	CategorySecurity      Category = "security"
	CategoryDemand        Category = "demand"
	CategoryEvent         Category = "event"
	CategoryAlternative   Category = "alternative"
)

// LegendEntry describes one category of the legend.
type LegendEntry struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Color    string   `json:"color"`
}

var legend = []LegendEntry{
	{CategoryProduct, "A: Producto", "#4285F4"},
	{CategoryStoreStock, "B: Tienda con stock", "#34A853"},
	{CategoryStoreNoStock, "C: Tienda sin stock", "#A8DAB5"},
	{CategoryHub, "D: Hub / CEDIS", "#00897B"},
	{CategoryFleetInternal, "E: Flota interna", "#FBBC04"},
	{CategoryFleetExternal, "F: Flota externa", "#F29900"},
	{CategoryDestination, "G: Destino", "#EA4335"},
	{CategoryWeather, "H: Clima", "#9AA0A6"},
	{CategoryTraffic, "I: Tráfico", "#FF8A65"},
	{CategorySecurity, "J: Seguridad", "#FF5722"},
	{CategoryDemand, "K: Demanda", "#607D8B"},
	{CategoryEvent, "L: Eventos", "#9C27B0"},
	{CategoryAlternative, "M: Alternativas", "#BDBDBD"},
}

// Legend returns the full, fixed legend in display order. The returned slice
// is a copy.
func Legend() []LegendEntry {
	out := make([]LegendEntry, len(legend))
	copy(out, legend)
	return out
}

// Label returns the legend label of c, or the raw category string for
// categories outside the legend.
func (c Category) Label() string {
	for _, e := range legend {
		if e.Category == c {
			return e.Label
		}
	}
	return string(c)
}

// Color returns the legend color of c. Unknown categories render grey.
func (c Category) Color() string {
	for _, e := range legend {
		if e.Category == c {
			return e.Color
		}
	}
	return "#9E9E9E"
}

// Known reports whether c is part of the legend.
func (c Category) Known() bool {
	for _, e := range legend {
		if e.Category == c {
			return true
		}
	}
	return false
}

// Graph is the canonical serialization format for decision graphs.
type Graph struct {
	Nodes      []Node        `json:"nodes"`
	Edges      []Edge        `json:"edges"`
	Categories []LegendEntry `json:"categories"`
}

// Node is a vertex of the decision graph. Name is its identity.
type Node struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Value       float64  `json:"value,omitempty"`
	Size        float64  `json:"size"`
	Opacity     float64  `json:"opacity,omitempty"` // 0 renders opaque
	Selected    bool     `json:"selected,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Edge is a directed link between two named nodes.
type Edge struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Label   string  `json:"label,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Dashed  bool    `json:"dashed,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

// Node returns the node with the given name.
func (g Graph) Node(name string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// NodesIn returns the nodes of category c, in graph order.
func (g Graph) NodesIn(c Category) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Category == c {
			out = append(out, n)
		}
	}
	return out
}

// EdgesFrom returns the edges leaving the named node.
func (g Graph) EdgesFrom(name string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == name {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo returns the edges entering the named node.
func (g Graph) EdgesTo(name string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Target == name {
			out = append(out, e)
		}
	}
	return out
}

// Validation errors returned by Graph.Validate.
var (
	ErrEmptyName     = errors.New("node name is empty")
	ErrDuplicateName = errors.New("duplicate node name")
	ErrDanglingEdge  = errors.New("edge references unknown node")
)

// Validate checks that node names are non-empty and unique and that every
// edge connects existing nodes.
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Name == "" {
			return ErrEmptyName
		}
		if _, dup := seen[n.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, n.Name)
		}
		seen[n.Name] = struct{}{}
	}
	for _, e := range g.Edges {
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("%w: %q", ErrDanglingEdge, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("%w: %q", ErrDanglingEdge, e.Target)
		}
	}
	return nil
}
