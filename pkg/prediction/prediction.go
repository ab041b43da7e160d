// Package prediction defines the canonical in-memory model of a delivery
// prediction result.
//
// The external prediction service has served several incompatible response
// shapes over time. Every shape is mapped onto [Result] by package normalize,
// so that graph assembly, insight extraction and rendering consume typed
// fields instead of re-deriving meaning from raw keys.
//
// A Result is built once per prediction call and never mutated afterwards.
// A new prediction replaces it wholesale.
package prediction

import "strings"

// SchemaVersion identifies which response shape produced a Result.
type SchemaVersion int

const (
	// SchemaUnknown asks the normalizer to infer the version from the payload.
	SchemaUnknown SchemaVersion = iota
	// SchemaNested is the oldest shape: route under "ruta_seleccionada" and
	// request echo and factors under "explicabilidad".
	SchemaNested
	// SchemaNestedHub is SchemaNested plus hub analysis and a logistics block.
	SchemaNestedHub
	// SchemaFlat has a flattened "resultado_final" outcome section.
	SchemaFlat
	// SchemaMultiOption carries several independent delivery options.
	SchemaMultiOption
)

var schemaNames = map[SchemaVersion]string{
	SchemaUnknown:     "unknown",
	SchemaNested:      "nested",
	SchemaNestedHub:   "nested-hub",
	SchemaFlat:        "flat",
	SchemaMultiOption: "multi-option",
}

func (v SchemaVersion) String() string {
	if s, ok := schemaNames[v]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the version by name.
func (v SchemaVersion) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText decodes a version name.
func (v *SchemaVersion) UnmarshalText(b []byte) error {
	*v = ParseSchemaVersion(string(b))
	return nil
}

// ParseSchemaVersion converts a schema name (as printed by String) back to a
// SchemaVersion. Unrecognized names map to SchemaUnknown.
func ParseSchemaVersion(s string) SchemaVersion {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range schemaNames {
		if name == s {
			return v
		}
	}
	return SchemaUnknown
}

// FleetKind tells whether a carrier leg is run by the retailer's own fleet or
// by a third-party carrier.
type FleetKind int

const (
	FleetUnknown FleetKind = iota
	FleetInternal
	FleetExternal
)

func (f FleetKind) String() string {
	switch f {
	case FleetInternal:
		return "internal"
	case FleetExternal:
		return "external"
	default:
		return "unknown"
	}
}

// MarshalText encodes the fleet kind by name.
func (f FleetKind) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText decodes a fleet kind name or service label.
func (f *FleetKind) UnmarshalText(b []byte) error {
	*f = ParseFleetKind(string(b))
	return nil
}

// ParseFleetKind maps the service's free-text fleet labels ("FI", "FE",
// "Flota Interna", "externa", ...) onto a FleetKind.
func ParseFleetKind(s string) FleetKind {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return FleetUnknown
	case s == "fi" || strings.Contains(s, "intern") || strings.Contains(s, "propia"):
		return FleetInternal
	case s == "fe" || strings.Contains(s, "extern") || strings.Contains(s, "tercero"):
		return FleetExternal
	default:
		return FleetUnknown
	}
}

// Request echoes the prediction request the result answers.
type Request struct {
	PostalCode  string `json:"postal_code"`
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	PurchasedAt string `json:"purchase_timestamp"`
}

// TimeWindow is the promised delivery slot, as "HH:MM" strings.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Outcome holds the decision metrics of a single delivery outcome.
type Outcome struct {
	TotalCost          float64    `json:"total_cost"`
	SuccessProbability float64    `json:"success_probability"`
	Confidence         float64    `json:"confidence"`
	DeliveryType       string     `json:"delivery_type"`
	EstimatedDelivery  string     `json:"estimated_delivery"`
	Window             TimeWindow `json:"window"`
}

// Segment is one leg of a route.
type Segment struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DistanceKm  float64   `json:"distance_km"`
	Hours       float64   `json:"hours"`
	Carrier     string    `json:"carrier"`
	Fleet       FleetKind `json:"fleet"`
}

// Logistics describes how the shipment travels.
// RouteKind is the service's free-text label and is only a classification
// hint.
type Logistics struct {
	RouteID         string    `json:"route_id,omitempty"`
	RouteKind       string    `json:"route_kind"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	TotalHours      float64   `json:"total_hours"`
	Carrier         string    `json:"carrier"`
	Fleet           FleetKind `json:"fleet"`
	HubName         string    `json:"hub_name,omitempty"`
	Segments        []Segment `json:"segments,omitempty"`
	Score           float64   `json:"score"`
}

// IsZero reports whether no logistics information was present at all.
func (l Logistics) IsZero() bool {
	return l.RouteKind == "" && l.Carrier == "" && l.HubName == "" &&
		l.TotalDistanceKm == 0 && l.TotalHours == 0 && len(l.Segments) == 0
}

// Store is a candidate fulfillment location.
// HasStock is derived from the allocation list by the normalizer and is
// never read from a single source field.
type Store struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Stock      int     `json:"stock"`
	Allocated  int     `json:"allocated,omitempty"`
	DistanceKm float64 `json:"distance_km"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Local      bool    `json:"local"`
	HasStock   bool    `json:"has_stock"`
}

// Key returns the identity used for allocation matching: the identifier when
// present, the display name otherwise.
func (s Store) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Name
}

// Hub is a distribution center considered for the route.
type Hub struct {
	Name            string  `json:"name"`
	Score           float64 `json:"score"`
	Coverage        string  `json:"coverage,omitempty"`
	ProcessingHours float64 `json:"processing_hours"`
	InboundKm       float64 `json:"inbound_km"`
	OutboundKm      float64 `json:"outbound_km"`
}

// HubAnalysis lists the evaluated hubs and the one selected.
// A HubAnalysis value always carries a named Selected hub; an analysis
// without a selection is represented by a nil *HubAnalysis.
type HubAnalysis struct {
	Evaluated []Hub `json:"evaluated,omitempty"`
	Selected  Hub   `json:"selected"`
}

// ExternalFactors are the environmental risks reported by the service.
type ExternalFactors struct {
	Weather          string  `json:"weather"`
	RainProbability  float64 `json:"rain_probability"`
	TemperatureC     float64 `json:"temperature_c"`
	WindKmh          float64 `json:"wind_kmh"`
	Traffic          string  `json:"traffic"`
	SecurityZone     string  `json:"security_zone"`
	Criticality      string  `json:"criticality,omitempty"`
	DemandMultiplier float64 `json:"demand_multiplier"`
	Event            string  `json:"event"`
	ExtraHours       float64 `json:"extra_hours"`
	ExtraCostPct     float64 `json:"extra_cost_pct"`
	HighSeason       bool    `json:"high_season"`
}

// NormalEvent is the event label reported when no special event applies.
const NormalEvent = "Normal"

// HasEvent reports whether a special event was detected.
func (f ExternalFactors) HasEvent() bool {
	return f.Event != "" && !strings.EqualFold(f.Event, NormalEvent)
}

// Alternative is a ranked outcome the service evaluated but did not select.
type Alternative struct {
	Rank               int      `json:"rank"`
	Label              string   `json:"label"`
	TotalCost          float64  `json:"total_cost"`
	SuccessProbability float64  `json:"success_probability"`
	Hours              float64  `json:"hours"`
	Stores             []string `json:"stores,omitempty"`
}

// DeliveryOption is one bundle of a multi-option result.
type DeliveryOption struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Outcome     Outcome   `json:"outcome"`
	Logistics   Logistics `json:"logistics"`
	Stores      []Store   `json:"stores"`
	Recommended bool      `json:"recommended"`
}

// FeeBreakdown splits the promised time into preparation, transit and
// contingency hours.
type FeeBreakdown struct {
	PreparationHours float64 `json:"preparation_hours"`
	TransitHours     float64 `json:"transit_hours"`
	ContingencyHours float64 `json:"contingency_hours"`
}

// RouteScores are the per-dimension route scores in [0, 1].
type RouteScores struct {
	Time        float64 `json:"time"`
	Cost        float64 `json:"cost"`
	Reliability float64 `json:"reliability"`
}

// Inventory summarizes the split-inventory totals of the allocation.
type Inventory struct {
	Required  int  `json:"required"`
	Available int  `json:"available"`
	Feasible  bool `json:"feasible"`
}

// Result is the normalized prediction result.
//
// Exactly one of the single-outcome sections (Logistics, Stores) and the
// Options bundle describes the fulfillment. Outcome is always filled: for a
// multi-option result it mirrors the recommended option so summary panels
// have one set of headline metrics.
type Result struct {
	Schema       SchemaVersion    `json:"schema"`
	Request      Request          `json:"request"`
	Outcome      Outcome          `json:"outcome"`
	Logistics    Logistics        `json:"logistics"`
	Stores       []Store          `json:"stores,omitempty"`
	Hubs         *HubAnalysis     `json:"hubs,omitempty"`
	Factors      ExternalFactors  `json:"factors"`
	Alternatives []Alternative    `json:"alternatives,omitempty"`
	Options      []DeliveryOption `json:"options,omitempty"`
	Fee          FeeBreakdown     `json:"fee"`
	Scores       RouteScores      `json:"scores"`
	Inventory    Inventory        `json:"inventory"`
}

// IsSplit reports whether the result is a bundle of delivery options.
func (r *Result) IsSplit() bool {
	return len(r.Options) > 0
}

// Recommended returns the recommended delivery option, falling back to the
// first option. ok is false for single-outcome results.
func (r *Result) Recommended() (DeliveryOption, bool) {
	if len(r.Options) == 0 {
		return DeliveryOption{}, false
	}
	for _, o := range r.Options {
		if o.Recommended {
			return o, true
		}
	}
	return r.Options[0], true
}

// StockedStores returns the stores that hold allocated stock.
func (r *Result) StockedStores() []Store {
	var out []Store
	for _, s := range r.Stores {
		if s.HasStock {
			out = append(out, s)
		}
	}
	return out
}
