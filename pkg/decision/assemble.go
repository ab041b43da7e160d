package decision

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/format"
	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

// minConnectedNodes is the smallest graph worth drawing.
const minConnectedNodes = 2

// fallbackCarrier names the carrier node of the fallback graph when the
// result does not name one.
const fallbackCarrier = "Carrier"

// Built is the outcome of Build.
type Built struct {
	Graph    graph.Graph
	Topology Topology
	// Fallback is set when Graph is the three-node fallback graph.
	Fallback bool
	// Err is the assembly error that caused the fallback, if any.
	Err      error
	Warnings []string
}

// Assemble runs the factories that apply to topology t and merges their
// output into one graph.
//
// Node names are unique in the result: a node whose name and category repeat
// an earlier node is dropped, and a name reused by a different category gets
// that category appended. Edges whose endpoints do not exist are dropped.
// Every drop and rename is logged as a warning.
//
// When fewer than two route nodes (product, stores, hubs, carriers,
// destination) are connected by an edge, Assemble returns the partial graph
// together with an INSUFFICIENT_GRAPH_DATA error.
func Assemble(r *prediction.Result, t Topology, logger *log.Logger) (graph.Graph, error) {
	g, _, err := assemble(r, t, logger)
	return g, err
}

func assemble(r *prediction.Result, t Topology, logger *log.Logger) (graph.Graph, []string, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if r == nil {
		return graph.Graph{}, nil, apperrors.New(apperrors.ErrCodeInvalidInput, "nil prediction result")
	}

	dest, product := destinationName(r.Request), productName(r.Request)
	names := storeNames(r.Stores)
	for i, n := range names {
		if n == dest || n == product {
			names[i] = n + " (tienda)"
		}
	}
	byKey := make(map[string]string, len(r.Stores))
	byName := make(map[string]struct{}, len(r.Stores))
	var stocked []string
	for i, s := range r.Stores {
		byKey[s.Key()] = names[i]
		if _, dup := byName[names[i]]; dup {
			continue
		}
		byName[names[i]] = struct{}{}
		if s.HasStock {
			stocked = append(stocked, names[i])
		}
	}

	frags := []fragment{
		destinationNodes(r),
		productNodes(r),
		storeNodes(r, names),
	}

	feeders := stocked
	if t == TopologyHubRouted {
		if len(feeders) == 0 {
			feeders = []string{product}
		}
		for _, hub := range hubNames(r) {
			if _, taken := byName[hub]; taken || hub == dest || hub == product {
				hub += " (hub)"
			}
			frags = append(frags, hubNodes(r, hub, feeders))
			feeders = []string{hub}
		}
	}
	frags = append(frags,
		fleetNodes(r, t, feeders, byKey),
		factorNodes(r.Factors, dest),
		alternativeNodes(r.Alternatives, dest),
	)

	g, warnings := merge(frags, logger)
	if n := connectedNodes(g); n < minConnectedNodes {
		return g, warnings, apperrors.New(apperrors.ErrCodeInsufficientGraphData,
			"decision graph has %d connected nodes, need %d", n, minConnectedNodes)
	}
	return g, warnings, nil
}

// merge concatenates fragments in order, enforcing unique node names.
func merge(frags []fragment, logger *log.Logger) (graph.Graph, []string) {
	g := graph.Graph{Categories: graph.Legend()}
	seen := make(map[string]graph.Category)
	var warnings []string
	warn := func(msg string, keyvals ...any) {
		logger.Warn(msg, keyvals...)
		var b strings.Builder
		b.WriteString(msg)
		for i := 0; i+1 < len(keyvals); i += 2 {
			fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
		}
		warnings = append(warnings, b.String())
	}

	var edges []graph.Edge
	for _, f := range frags {
		renamed := make(map[string]string)
		for _, n := range f.nodes {
			if cat, ok := seen[n.Name]; ok {
				if cat == n.Category {
					warn("dropped duplicate node", "name", n.Name, "category", n.Category)
					continue
				}
				name := uniqueName(seen, fmt.Sprintf("%s (%s)", n.Name, n.Category))
				warn("renamed colliding node", "name", n.Name, "as", name)
				renamed[n.Name] = name
				n.Name = name
			}
			seen[n.Name] = n.Category
			g.Nodes = append(g.Nodes, n)
		}
		for i, e := range f.edges {
			var own endpoint
			if i < len(f.owns) {
				own = f.owns[i]
			}
			if to, ok := renamed[e.Source]; ok && own&ownSource != 0 {
				e.Source = to
			}
			if to, ok := renamed[e.Target]; ok && own&ownTarget != 0 {
				e.Target = to
			}
			edges = append(edges, e)
		}
	}

	for _, e := range edges {
		_, okSrc := seen[e.Source]
		_, okDst := seen[e.Target]
		if !okSrc || !okDst {
			warn("dropped dangling edge", "source", e.Source, "target", e.Target)
			continue
		}
		g.Edges = append(g.Edges, e)
	}
	return g, warnings
}

func uniqueName(seen map[string]graph.Category, name string) string {
	if _, ok := seen[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s #%d", name, i)
		if _, ok := seen[candidate]; !ok {
			return candidate
		}
	}
}

// connectedNodes counts route nodes touched by at least one edge between
// route nodes. External factors and alternatives only annotate a route, so
// their edges do not count.
func connectedNodes(g graph.Graph) int {
	route := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		route[n.Name] = !annotation(n.Category)
	}
	touched := make(map[string]struct{}, len(g.Nodes))
	for _, e := range g.Edges {
		if e.Source == e.Target || !route[e.Source] || !route[e.Target] {
			continue
		}
		touched[e.Source] = struct{}{}
		touched[e.Target] = struct{}{}
	}
	return len(touched)
}

func annotation(c graph.Category) bool {
	switch c {
	case graph.CategoryWeather, graph.CategoryTraffic, graph.CategorySecurity,
		graph.CategoryDemand, graph.CategoryEvent, graph.CategoryAlternative:
		return true
	}
	return false
}

// Fallback returns the minimal product → carrier → destination graph. It
// only reads fields that always have a printable value, so it cannot fail.
func Fallback(r *prediction.Result) graph.Graph {
	var req prediction.Request
	carrier, fleet := "", prediction.FleetUnknown
	if r != nil {
		req = r.Request
		carrier, fleet = r.Logistics.Carrier, r.Logistics.Fleet
		if carrier == "" {
			if o, ok := r.Recommended(); ok {
				carrier, fleet = o.Logistics.Carrier, o.Logistics.Fleet
			}
		}
	}
	if carrier == "" {
		carrier = fallbackCarrier
	}

	product, dest := productName(req), destinationName(req)
	return graph.Graph{
		Nodes: []graph.Node{
			{Name: product, Category: graph.CategoryProduct, Value: float64(req.Quantity), Size: 60},
			{Name: carrier, Category: fleetCategory(fleet), Size: 70},
			{Name: dest, Category: graph.CategoryDestination, Size: 90, Selected: true, Description: format.OrNA(req.PostalCode)},
		},
		Edges: []graph.Edge{
			{Source: product, Target: carrier, Width: 4},
			{Source: carrier, Target: dest, Width: 6},
		},
		Categories: graph.Legend(),
	}
}

// Build classifies r, assembles its graph and falls back to the minimal
// graph when assembly fails. It never fails itself.
func Build(r *prediction.Result, logger *log.Logger) Built {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if r == nil {
		return Built{Graph: Fallback(nil), Fallback: true,
			Err: apperrors.New(apperrors.ErrCodeInvalidInput, "nil prediction result")}
	}

	t := Classify(r)
	g, warnings, err := assemble(r, t, logger)
	if err != nil {
		logger.Warn("using fallback graph", "topology", t, "err", err)
		return Built{Graph: Fallback(r), Topology: t, Fallback: true, Err: err, Warnings: warnings}
	}
	logger.Debug("assembled decision graph", "topology", t, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return Built{Graph: g, Topology: t, Warnings: warnings}
}
