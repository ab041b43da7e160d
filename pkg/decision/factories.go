package decision

import (
	"fmt"
	"sort"
	"strings"

	"github.com/imartinezt/logistica-front/pkg/format"
	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

// Factor trigger thresholds.
const (
	rainThreshold   = 60  // percent, exclusive
	demandThreshold = 1.5 // multiplier, exclusive
	trafficHigh     = 3   // trafficLevel of "Alto"
	zoneYellow      = 2   // zoneLevel of "Amarilla"
)

// Alternatives shown at most.
const maxAlternatives = 3

const (
	dimOpacity = 0.6
	altOpacity = 0.35
)

// fragment is the output of one factory. owns records, per edge, which
// endpoints are nodes of this fragment rather than references to nodes
// emitted by other factories.
type fragment struct {
	nodes []graph.Node
	edges []graph.Edge
	owns  []endpoint
}

type endpoint uint8

const (
	ownSource endpoint = 1 << iota
	ownTarget
)

// in adds an edge from another fragment's node into one of f's nodes.
func (f *fragment) in(e graph.Edge) { f.add(e, ownTarget) }

// out adds an edge from one of f's nodes to another fragment's node.
func (f *fragment) out(e graph.Edge) { f.add(e, ownSource) }

// pass adds an edge between two nodes f did not emit.
func (f *fragment) pass(e graph.Edge) { f.add(e, 0) }

func (f *fragment) add(e graph.Edge, own endpoint) {
	f.edges = append(f.edges, e)
	f.owns = append(f.owns, own)
}

func productName(req prediction.Request) string {
	return "SKU: " + format.OrNA(req.ProductID)
}

func destinationName(req prediction.Request) string {
	return "Cliente CP: " + format.OrNA(req.PostalCode)
}

func storeDisplayName(s prediction.Store) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// storeNames assigns node names to stores. Stores sharing a display name are
// told apart by their identifier, then by a counter. Repeated entries of the
// same store keep the same name so the assembler drops them.
func storeNames(stores []prediction.Store) []string {
	count := make(map[string]int, len(stores))
	for _, s := range stores {
		count[storeDisplayName(s)]++
	}
	out := make([]string, len(stores))
	for i, s := range stores {
		name := storeDisplayName(s)
		if count[name] > 1 && s.ID != "" && s.ID != name {
			name = fmt.Sprintf("%s (%s)", name, s.ID)
		}
		out[i] = name
	}

	owner := make(map[string]prediction.Store, len(stores))
	for i, s := range stores {
		prev, taken := owner[out[i]]
		if !taken {
			owner[out[i]] = s
			continue
		}
		if prev.ID == s.ID && prev.HasStock == s.HasStock {
			continue
		}
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s #%d", out[i], n)
			if _, used := owner[candidate]; !used {
				out[i] = candidate
				owner[candidate] = s
				break
			}
		}
	}
	return out
}

func fleetLabel(k prediction.FleetKind) string {
	switch k {
	case prediction.FleetInternal:
		return "Flota interna"
	case prediction.FleetExternal:
		return "Flota externa"
	default:
		return "Flota N/A"
	}
}

// fleetCategory renders unknown fleets as external.
func fleetCategory(k prediction.FleetKind) graph.Category {
	if k == prediction.FleetInternal {
		return graph.CategoryFleetInternal
	}
	return graph.CategoryFleetExternal
}

func destinationNodes(r *prediction.Result) fragment {
	return fragment{nodes: []graph.Node{{
		Name:        destinationName(r.Request),
		Category:    graph.CategoryDestination,
		Size:        90,
		Selected:    true,
		Description: promise(r.Outcome),
	}}}
}

func promise(o prediction.Outcome) string {
	if o.EstimatedDelivery == "" {
		return ""
	}
	s := "Entrega " + format.Date(o.EstimatedDelivery)
	if o.Window.Start != "" || o.Window.End != "" {
		s += fmt.Sprintf(" %s-%s", format.OrNA(o.Window.Start), format.OrNA(o.Window.End))
	}
	return s
}

func productNodes(r *prediction.Result) fragment {
	size := 40 + 10*float64(r.Request.Quantity)
	if size > 100 {
		size = 100
	}
	return fragment{nodes: []graph.Node{{
		Name:        productName(r.Request),
		Category:    graph.CategoryProduct,
		Value:       float64(r.Request.Quantity),
		Size:        size,
		Description: fmt.Sprintf("%d unidades", r.Request.Quantity),
	}}}
}

// storeNodes emits one node per store. Stocked stores are fed by the product;
// stores without stock point at the destination with a dashed edge.
func storeNodes(r *prediction.Result, names []string) fragment {
	var f fragment
	product, dest := productName(r.Request), destinationName(r.Request)

	for i, s := range r.Stores {
		n := graph.Node{
			Name:        names[i],
			Value:       float64(s.Stock),
			Description: storeDescription(s),
		}
		if s.HasStock {
			n.Category = graph.CategoryStoreStock
			n.Size = 80
			n.Selected = true
			e := graph.Edge{Source: product, Target: n.Name, Width: 4}
			if s.Allocated > 0 {
				e.Label = fmt.Sprintf("%d u", s.Allocated)
				e.Value = float64(s.Allocated)
			}
			f.in(e)
		} else {
			n.Category = graph.CategoryStoreNoStock
			n.Size = 50
			n.Opacity = dimOpacity
			f.out(graph.Edge{
				Source:  n.Name,
				Target:  dest,
				Value:   s.DistanceKm,
				Width:   2,
				Dashed:  true,
				Opacity: 0.5,
			})
		}
		f.nodes = append(f.nodes, n)
	}
	return f
}

func storeDescription(s prediction.Store) string {
	var parts []string
	if s.ID != "" {
		parts = append(parts, s.ID)
	}
	parts = append(parts, fmt.Sprintf("stock %d", s.Stock))
	if s.DistanceKm > 0 {
		parts = append(parts, format.Km(s.DistanceKm))
	}
	if s.UnitPrice > 0 {
		parts = append(parts, format.Currency(s.UnitPrice))
	}
	if s.Local {
		parts = append(parts, "local")
	}
	return strings.Join(parts, " · ")
}

// hubNames lists the hubs a hub-routed shipment passes through, in route
// order: the selected hub, else the named intermediate hub, else every
// segment destination named like a hub, else a generic label when only the
// route text mentions one.
func hubNames(r *prediction.Result) []string {
	switch {
	case r.Hubs != nil:
		return []string{r.Hubs.Selected.Name}
	case r.Logistics.HubName != "":
		return []string{r.Logistics.HubName}
	}
	if hubs := segmentHubs(r.Logistics.Segments); len(hubs) > 0 {
		return hubs
	}
	return []string{"Hub intermedio"}
}

// hubNodes emits the hub node, named name, fed by the given nodes.
func hubNodes(r *prediction.Result, name string, feeders []string) fragment {
	var hub prediction.Hub
	if r.Hubs != nil {
		hub = r.Hubs.Selected
	}
	hub.Name = name

	var desc []string
	if hub.Score > 0 {
		desc = append(desc, fmt.Sprintf("score %.2f", hub.Score))
	}
	if hub.Coverage != "" {
		desc = append(desc, hub.Coverage)
	}
	if hub.ProcessingHours > 0 {
		desc = append(desc, "proceso "+format.Hours(hub.ProcessingHours))
	}

	f := fragment{nodes: []graph.Node{{
		Name:        hub.Name,
		Category:    graph.CategoryHub,
		Value:       hub.Score,
		Size:        75,
		Selected:    true,
		Description: strings.Join(desc, " · "),
	}}}
	for _, src := range feeders {
		e := graph.Edge{Source: src, Target: hub.Name, Width: 5}
		if hub.InboundKm > 0 {
			e.Label = format.Km(hub.InboundKm)
			e.Value = hub.InboundKm
		}
		f.in(e)
	}
	return f
}

// lastLeg returns the distance and hours of the final carrier leg.
func lastLeg(r *prediction.Result, t Topology) (km, hours float64) {
	l := r.Logistics
	if t == TopologyHubRouted && r.Hubs != nil && r.Hubs.Selected.OutboundKm > 0 {
		return r.Hubs.Selected.OutboundKm, 0
	}
	if t != TopologyDirect && len(l.Segments) > 0 {
		last := l.Segments[len(l.Segments)-1]
		return last.DistanceKm, last.Hours
	}
	return l.TotalDistanceKm, l.TotalHours
}

func legLabel(km, hours float64) string {
	var parts []string
	if km > 0 {
		parts = append(parts, format.Km(km))
	}
	if hours > 0 {
		parts = append(parts, format.Hours(hours))
	}
	return strings.Join(parts, " · ")
}

// fleetNodes emits the carrier handoff. A split result gets one fleet node
// per delivery option; other topologies get a single one fed by feeders.
// Without logistics data the feeders connect to the destination directly.
func fleetNodes(r *prediction.Result, t Topology, feeders []string, storeNameByKey map[string]string) fragment {
	dest := destinationName(r.Request)
	var f fragment

	if t == TopologySplit {
		for _, o := range r.Options {
			name := fmt.Sprintf("%s (%s) · Opción %s", format.OrNA(o.Logistics.Carrier), fleetLabel(o.Logistics.Fleet), o.ID)
			n := graph.Node{
				Name:        name,
				Category:    fleetCategory(o.Logistics.Fleet),
				Value:       o.Outcome.TotalCost,
				Size:        60,
				Selected:    o.Recommended,
				Description: optionDescription(o),
			}
			width, opacity := 3.0, dimOpacity
			if o.Recommended {
				n.Size, width, opacity = 70, 6, 0
			} else {
				n.Opacity = dimOpacity
			}
			f.nodes = append(f.nodes, n)
			for _, s := range o.Stores {
				src, ok := storeNameByKey[s.Key()]
				if !ok {
					src = storeDisplayName(s)
				}
				f.in(graph.Edge{Source: src, Target: name, Width: width, Opacity: opacity})
			}
			f.out(graph.Edge{
				Source:  name,
				Target:  dest,
				Label:   legLabel(o.Logistics.TotalDistanceKm, o.Logistics.TotalHours),
				Value:   o.Logistics.TotalDistanceKm,
				Width:   width,
				Opacity: opacity,
			})
		}
		return f
	}

	if r.Logistics.IsZero() {
		for _, src := range feeders {
			f.pass(graph.Edge{Source: src, Target: dest, Width: 4})
		}
		return f
	}

	l := r.Logistics
	name := fmt.Sprintf("%s (%s)", format.OrNA(l.Carrier), fleetLabel(l.Fleet))
	f.nodes = append(f.nodes, graph.Node{
		Name:        name,
		Category:    fleetCategory(l.Fleet),
		Value:       l.TotalDistanceKm,
		Size:        70,
		Description: segmentsDescription(l.Segments),
	})
	for _, src := range feeders {
		f.in(graph.Edge{Source: src, Target: name, Width: 5})
	}

	km, hours := lastLeg(r, t)
	label := legLabel(km, hours)
	if t == TopologyMultiSegment {
		label = fmt.Sprintf("%d tramos · %s", len(l.Segments), legLabel(l.TotalDistanceKm, l.TotalHours))
	}
	f.out(graph.Edge{Source: name, Target: dest, Label: label, Value: km, Width: 6})
	return f
}

func optionDescription(o prediction.DeliveryOption) string {
	parts := []string{o.Label, format.Currency(o.Outcome.TotalCost), format.Percentage(o.Outcome.SuccessProbability)}
	if o.Logistics.HubName != "" {
		parts = append(parts, "vía "+o.Logistics.HubName)
	}
	if o.Recommended {
		parts = append(parts, "recomendada")
	}
	return strings.Join(parts, " · ")
}

func segmentsDescription(segs []prediction.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, fmt.Sprintf("%s → %s (%s)", format.OrNA(s.Origin), format.OrNA(s.Destination), format.Km(s.DistanceKm)))
	}
	return strings.Join(parts, "; ")
}

func normLevel(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
}

// trafficLevel ranks traffic labels: 1 low to 4 severe, 0 unknown.
func trafficLevel(s string) int {
	switch normLevel(s) {
	case "bajo", "low", "fluido":
		return 1
	case "moderado", "medio", "moderate", "medium":
		return 2
	case "alto", "high", "heavy", "pesado":
		return 3
	case "muy alto", "very high", "critico", "crítico", "severe", "severo":
		return 4
	}
	return 0
}

// zoneLevel ranks security zones: 1 green to 4 red, 0 unknown.
func zoneLevel(s string) int {
	switch normLevel(s) {
	case "verde", "green":
		return 1
	case "amarilla", "amarillo", "yellow":
		return 2
	case "naranja", "orange":
		return 3
	case "roja", "rojo", "red":
		return 4
	}
	return 0
}

// factorNodes emits one node per external factor past its threshold, each
// with a dashed edge into the destination.
func factorNodes(f prediction.ExternalFactors, dest string) fragment {
	var out fragment
	add := func(n graph.Node, width float64) {
		out.nodes = append(out.nodes, n)
		out.out(graph.Edge{Source: n.Name, Target: dest, Width: width, Dashed: true, Opacity: 0.7})
	}

	if f.RainProbability > rainThreshold {
		add(graph.Node{
			Name:        fmt.Sprintf("Lluvia %.0f%%", f.RainProbability),
			Category:    graph.CategoryWeather,
			Value:       f.RainProbability,
			Size:        45,
			Description: weatherDescription(f),
		}, 2)
	}
	if trafficLevel(f.Traffic) >= trafficHigh {
		add(graph.Node{Name: "Tráfico " + f.Traffic, Category: graph.CategoryTraffic, Size: 50}, 3)
	}
	if zoneLevel(f.SecurityZone) >= zoneYellow {
		add(graph.Node{
			Name:        "Zona " + f.SecurityZone,
			Category:    graph.CategorySecurity,
			Size:        60,
			Description: format.OrNA(f.Criticality),
		}, 3)
	}
	if f.DemandMultiplier > demandThreshold {
		add(graph.Node{
			Name:        fmt.Sprintf("Demanda x%.1f", f.DemandMultiplier),
			Category:    graph.CategoryDemand,
			Value:       f.DemandMultiplier,
			Size:        65,
			Description: demandDescription(f),
		}, 2)
	}
	if f.HasEvent() {
		add(graph.Node{Name: "Evento: " + f.Event, Category: graph.CategoryEvent, Size: 50}, 3)
	}
	return out
}

func weatherDescription(f prediction.ExternalFactors) string {
	parts := []string{format.OrNA(f.Weather)}
	if f.TemperatureC != 0 {
		parts = append(parts, fmt.Sprintf("%.0f°C", f.TemperatureC))
	}
	if f.WindKmh > 0 {
		parts = append(parts, fmt.Sprintf("viento %.0f km/h", f.WindKmh))
	}
	return strings.Join(parts, " · ")
}

func demandDescription(f prediction.ExternalFactors) string {
	return fmt.Sprintf("+%.1f h · +%.1f%% costo", f.ExtraHours, f.ExtraCostPct)
}

// alternativeNodes emits the best ranked alternatives, faded, with dashed
// unlabeled edges into the destination. alts never holds the selected
// candidate, so a single entry already means two candidates competed.
func alternativeNodes(alts []prediction.Alternative, dest string) fragment {
	var f fragment
	if len(alts) == 0 {
		return f
	}
	ranked := make([]prediction.Alternative, len(alts))
	copy(ranked, alts)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	if len(ranked) > maxAlternatives {
		ranked = ranked[:maxAlternatives]
	}

	for _, a := range ranked {
		name := fmt.Sprintf("Alt #%d: %s", a.Rank, a.Label)
		f.nodes = append(f.nodes, graph.Node{
			Name:        name,
			Category:    graph.CategoryAlternative,
			Value:       a.TotalCost,
			Size:        35,
			Opacity:     altOpacity,
			Description: fmt.Sprintf("%s · %s · %s", format.Currency(a.TotalCost), format.Percentage(a.SuccessProbability), format.Hours(a.Hours)),
		})
		f.out(graph.Edge{Source: name, Target: dest, Width: 1, Dashed: true, Opacity: altOpacity})
	}
	return f
}
