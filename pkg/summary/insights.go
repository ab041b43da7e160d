// Package summary derives the headline facts shown next to the decision
// graph: a short ranked list of insights, the relative delivery date and the
// badge and risk classes of the metrics panel.
//
// Everything here reads the normalized model only. Insights and the relative
// date are independent of graph assembly and never fail; missing data simply
// produces fewer insights or "N/A".
package summary

import (
	"fmt"
	"strings"

	"github.com/imartinezt/logistica-front/pkg/decision"
	"github.com/imartinezt/logistica-front/pkg/format"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

// MaxInsights bounds the insight list.
const MaxInsights = 5

// Family is an insight rule family. Families are evaluated in the order
// declared here and each contributes at most one insight.
type Family int

const (
	FamilySpeed Family = iota
	FamilyCost
	FamilyProbability
	FamilyDemand
	FamilyRoute
)

var familyNames = [...]string{
	FamilySpeed:       "speed",
	FamilyCost:        "cost",
	FamilyProbability: "probability",
	FamilyDemand:      "demand",
	FamilyRoute:       "route",
}

func (f Family) String() string {
	if int(f) >= 0 && int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "unknown"
}

// MarshalText encodes the family by name.
func (f Family) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// Insight is one highlight. Class is the machine-readable bucket
// ("express", "economy", "high", ...); Text is what the panel prints.
type Insight struct {
	Family Family `json:"family"`
	Class  string `json:"class"`
	Text   string `json:"text"`
}

// Speed thresholds in hours, inclusive.
const (
	expressHours  = 24
	standardHours = 72
)

// Cost thresholds in MXN. Economy is exclusive, standard inclusive.
const (
	economyCost  = 100
	standardCost = 300
)

// Probability thresholds, inclusive.
const (
	highProbability     = 0.8
	moderateProbability = 0.6
)

// Demand multiplier above which demand is flagged.
const demandFlag = 1.5

// Extract evaluates every family in priority order and returns the insights
// whose condition holds. The list is never padded.
func Extract(r *prediction.Result) []Insight {
	if r == nil {
		return nil
	}
	rules := []func(*prediction.Result) (Insight, bool){
		speedInsight,
		costInsight,
		probabilityInsight,
		demandInsight,
		routeInsight,
	}
	var out []Insight
	for _, rule := range rules {
		if in, ok := rule(r); ok {
			out = append(out, in)
		}
		if len(out) == MaxInsights {
			break
		}
	}
	return out
}

// Insights returns the text of Extract(r).
func Insights(r *prediction.Result) []string {
	ins := Extract(r)
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.Text
	}
	return out
}

// headline returns the logistics that describe the chosen fulfillment: the
// recommended option's for multi-option results.
func headline(r *prediction.Result) prediction.Logistics {
	if o, ok := r.Recommended(); ok && r.Logistics.IsZero() {
		return o.Logistics
	}
	return r.Logistics
}

func speedInsight(r *prediction.Result) (Insight, bool) {
	hours := headline(r).TotalHours
	if hours <= 0 {
		return Insight{}, false
	}
	in := Insight{Family: FamilySpeed}
	switch {
	case hours <= expressHours:
		in.Class, in.Text = "express", "Entrega express"
	case hours <= standardHours:
		in.Class, in.Text = "standard", "Entrega estándar"
	default:
		in.Class, in.Text = "extended", "Entrega extendida"
	}
	in.Text += fmt.Sprintf(": %s estimadas", format.Hours(hours))
	return in, true
}

func costInsight(r *prediction.Result) (Insight, bool) {
	cost := r.Outcome.TotalCost
	if cost <= 0 {
		return Insight{}, false
	}
	in := Insight{Family: FamilyCost}
	switch {
	case cost < economyCost:
		in.Class, in.Text = "economy", "Costo económico"
	case cost <= standardCost:
		in.Class, in.Text = "standard", "Costo estándar"
	default:
		in.Class, in.Text = "premium", "Costo premium"
	}
	in.Text += ": " + format.Currency(cost)
	return in, true
}

func probabilityInsight(r *prediction.Result) (Insight, bool) {
	p := r.Outcome.SuccessProbability
	if p <= 0 {
		return Insight{}, false
	}
	in := Insight{Family: FamilyProbability}
	switch RiskLevelOf(p) {
	case RiskSuccess:
		in.Class, in.Text = "high", "Alta probabilidad de éxito"
	case RiskWarning:
		in.Class, in.Text = "moderate", "Probabilidad de éxito moderada"
	default:
		in.Class, in.Text = "low", "Baja probabilidad de éxito"
	}
	in.Text += " (" + format.Percentage(p) + ")"
	if z := zoneText(r.Factors.SecurityZone); z != "" {
		in.Text += " · " + z
	}
	return in, true
}

// zoneText describes the security zone, or returns "" for unknown zones.
func zoneText(zone string) string {
	switch strings.ToLower(strings.TrimSpace(zone)) {
	case "roja", "rojo":
		return "zona de alto riesgo"
	case "amarilla", "amarillo":
		return "zona de riesgo moderado"
	case "verde":
		return "zona de bajo riesgo"
	}
	return ""
}

func demandInsight(r *prediction.Result) (Insight, bool) {
	f := r.Factors
	var parts []string
	if f.HasEvent() {
		parts = append(parts, "Evento "+f.Event)
	}
	if f.DemandMultiplier > demandFlag {
		parts = append(parts, fmt.Sprintf("demanda x%.1f", f.DemandMultiplier))
	}
	if f.HighSeason {
		parts = append(parts, "temporada alta")
	}
	if len(parts) == 0 {
		return Insight{}, false
	}
	text := strings.Join(parts, " · ")
	text = strings.ToUpper(text[:1]) + text[1:]
	class := "demand"
	if f.HasEvent() {
		class = "event"
	}
	return Insight{Family: FamilyDemand, Class: class, Text: text}, true
}

func routeInsight(r *prediction.Result) (Insight, bool) {
	t := decision.Classify(r)
	in := Insight{Family: FamilyRoute, Class: t.String()}
	switch t {
	case decision.TopologySplit:
		in.Text = fmt.Sprintf("Entrega dividida en %d opciones", len(r.Options))
		if o, ok := r.Recommended(); ok && o.ID != "" {
			in.Text += ", recomendada " + o.ID
		}
	case decision.TopologyHubRouted:
		name := r.Logistics.HubName
		if r.Hubs != nil {
			name = r.Hubs.Selected.Name
		}
		in.Text = "Ruta vía hub"
		if name != "" {
			in.Text += " " + name
		}
	case decision.TopologyMultiSegment:
		in.Text = fmt.Sprintf("Ruta de %d tramos", len(r.Logistics.Segments))
	default:
		return Insight{}, false
	}
	return in, true
}
