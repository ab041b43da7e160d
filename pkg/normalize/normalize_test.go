package normalize

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

func mustNormalize(t *testing.T, name string) *prediction.Result {
	t.Helper()
	r, err := Normalize(loadFixture(t, name), prediction.SchemaUnknown)
	if err != nil {
		t.Fatalf("Normalize(%s) error: %v", name, err)
	}
	return r
}

func storeByKey(r *prediction.Result, key string) (prediction.Store, bool) {
	for _, s := range r.Stores {
		if s.Key() == key {
			return s, true
		}
	}
	return prediction.Store{}, false
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want prediction.SchemaVersion
	}{
		{"multi option wins", `{"multiple_delivery_options":true,"resultado_final":{},"ruta_seleccionada":{}}`, prediction.SchemaMultiOption},
		{"false flag falls through to flat", `{"multiple_delivery_options":false,"resultado_final":{}}`, prediction.SchemaFlat},
		{"false flag falls through to nested", `{"multiple_delivery_options":false,"ruta_seleccionada":{}}`, prediction.SchemaNested},
		{"options without flag", `{"delivery_options":[{"id":"A"}],"resultado_final":{}}`, prediction.SchemaMultiOption},
		{"empty options without flag", `{"delivery_options":[],"resultado_final":{}}`, prediction.SchemaFlat},
				{"flat over nested", `{"resultado_final":{},"ruta_seleccionada":{}}`, prediction.SchemaFlat},
		{"nested with hubs", `{"ruta_seleccionada":{},"explicabilidad_extendida":{"analisis_hubs":{}}}`, prediction.SchemaNestedHub},
		{"nested with logistics", `{"explicabilidad":{},"logistica_entrega":{}}`, prediction.SchemaNestedHub},
		{"nested with null hubs key", `{"ruta_seleccionada":{},"analisis_hubs":null}`, prediction.SchemaNestedHub},
		{"nested plain", `{"ruta_seleccionada":{}}`, prediction.SchemaNested},
		{"explicabilidad only", `{"explicabilidad":{}}`, prediction.SchemaNested},
		{"unknown object", `{"foo":1}`, prediction.SchemaUnknown},
		{"array", `[1,2]`, prediction.SchemaUnknown},
		{"invalid json", `{`, prediction.SchemaUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect([]byte(tt.raw)); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFixtures(t *testing.T) {
	tests := map[string]prediction.SchemaVersion{
		"nested.json":       prediction.SchemaNested,
		"nested_hub.json":   prediction.SchemaNestedHub,
		"flat.json":         prediction.SchemaFlat,
		"multi_option.json": prediction.SchemaMultiOption,
	}
	for name, want := range tests {
		if got := Detect(loadFixture(t, name)); got != want {
			t.Errorf("Detect(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestNormalizeNested(t *testing.T) {
	r := mustNormalize(t, "nested.json")

	if r.Schema != prediction.SchemaNested {
		t.Errorf("Schema = %v", r.Schema)
	}
	want := prediction.Request{PostalCode: "05050", ProductID: "LIV-004", Quantity: 3, PurchasedAt: "2025-01-10T09:30:00"}
	if r.Request != want {
		t.Errorf("Request = %+v, want %+v", r.Request, want)
	}
	if r.Outcome.TotalCost != 245.5 || r.Outcome.SuccessProbability != 0.87 || r.Outcome.Confidence != 0.82 {
		t.Errorf("Outcome metrics = %+v", r.Outcome)
	}
	if r.Outcome.Window.Start != "14:00" || r.Outcome.Window.End != "18:00" {
		t.Errorf("Window = %+v", r.Outcome.Window)
	}

	l := r.Logistics
	if l.RouteID != "R-DIRECT-001" || l.Carrier != "Liverpool" || l.Fleet != prediction.FleetInternal {
		t.Errorf("Logistics = %+v", l)
	}
	if l.TotalHours != 16.25 || l.TotalDistanceKm != 42.3 || len(l.Segments) != 1 {
		t.Errorf("Logistics totals = %+v", l)
	}
	if r.Hubs != nil {
		t.Errorf("Hubs = %+v, want nil", r.Hubs)
	}
	if r.Factors.Event != prediction.NormalEvent || r.Factors.HasEvent() {
		t.Errorf("Event = %q", r.Factors.Event)
	}
	if r.Fee.PreparationHours != 2 || r.Fee.TransitHours != 12.5 {
		t.Errorf("Fee = %+v", r.Fee)
	}
	if r.Scores.Reliability != 0.9 {
		t.Errorf("Scores = %+v", r.Scores)
	}
	if !r.Inventory.Feasible || r.Inventory.Required != 3 || r.Inventory.Available != 12 {
		t.Errorf("Inventory = %+v", r.Inventory)
	}

	if len(r.Alternatives) != 2 {
		t.Fatalf("Alternatives = %d, want 2 (selected candidate skipped)", len(r.Alternatives))
	}
	if r.Alternatives[0].Rank != 2 || r.Alternatives[0].Label != "R-ALT-002" {
		t.Errorf("Alternatives not sorted by rank: %+v", r.Alternatives)
	}
}

func TestNormalizeStockFromAllocationOnly(t *testing.T) {
	r := mustNormalize(t, "nested.json")

	tests := []struct {
		key       string
		wantStock bool
	}{
		{"LIV_001", true},  // allocated
		{"LIV_002", false}, // detailed, nearby and authorized with stock_disponible > 0
		{"LIV_003", false}, // nearby only
		{"LIV_004", false}, // listed in tiendas_con_stock only
	}
	for _, tt := range tests {
		s, ok := storeByKey(r, tt.key)
		if !ok {
			t.Errorf("store %s missing", tt.key)
			continue
		}
		if s.HasStock != tt.wantStock {
			t.Errorf("store %s HasStock = %v, want %v", tt.key, s.HasStock, tt.wantStock)
		}
	}
	if len(r.Stores) != 4 {
		t.Errorf("Stores = %d, want 4", len(r.Stores))
	}

	perisur, _ := storeByKey(r, "LIV_001")
	if perisur.Allocated != 3 || perisur.UnitPrice != 1299 {
		t.Errorf("allocation fields not merged: %+v", perisur)
	}
}

func TestNormalizeAllocatedStoreNotInCandidates(t *testing.T) {
	r := mustNormalize(t, "flat.json")

	puebla, ok := storeByKey(r, "LIV_020")
	if !ok {
		t.Fatal("allocated store missing from candidates was not added")
	}
	if !puebla.HasStock || puebla.Name != "Liverpool Puebla" || puebla.Allocated != 2 {
		t.Errorf("allocated store = %+v", puebla)
	}

	polanco, _ := storeByKey(r, "LIV_021")
	if polanco.HasStock {
		t.Error("nearby store without allocation must not hold stock")
	}
	if !polanco.Local {
		t.Error("Local flag lost")
	}
	if _, ok := storeByKey(r, "LIV_022"); !ok {
		t.Error("advisory nearby store missing")
	}
}

func TestNormalizeNestedHub(t *testing.T) {
	r := mustNormalize(t, "nested_hub.json")

	if r.Hubs == nil {
		t.Fatal("Hubs = nil")
	}
	if r.Hubs.Selected.Name != "CEDIS Huehuetoca" {
		t.Errorf("Selected = %+v", r.Hubs.Selected)
	}
	if r.Hubs.Selected.Score != 0.88 {
		t.Errorf("selected score = %v, want score_hub_seleccionado", r.Hubs.Selected.Score)
	}
	if r.Hubs.Selected.OutboundKm != 26 {
		t.Errorf("selected hub details not copied from evaluated list: %+v", r.Hubs.Selected)
	}
	if len(r.Hubs.Evaluated) != 2 {
		t.Errorf("Evaluated = %d", len(r.Hubs.Evaluated))
	}

	l := r.Logistics
	if l.RouteKind != "directa" || l.HubName != "CEDIS Huehuetoca" {
		t.Errorf("Logistics = %+v", l)
	}
	if l.Carrier != "Estafeta" || l.Fleet != prediction.FleetExternal {
		t.Errorf("logistica_entrega should win over the route block: %+v", l)
	}
	if len(l.Segments) != 2 {
		t.Errorf("Segments = %d", len(l.Segments))
	}
	if r.Factors.DemandMultiplier != 1 {
		t.Errorf("missing factor_demanda should default to 1, got %v", r.Factors.DemandMultiplier)
	}
	if r.Fee.TransitHours != defaultTransitHours {
		t.Errorf("missing fee_calculation should default, got %+v", r.Fee)
	}
}

func TestNormalizeFlat(t *testing.T) {
	r := mustNormalize(t, "flat.json")

	if r.Outcome.TotalCost != 80 || r.Outcome.DeliveryType != "EXPRESS" {
		t.Errorf("Outcome = %+v", r.Outcome)
	}
	if r.Outcome.Window.Start != "10:00" {
		t.Errorf("ventana_entrega not read: %+v", r.Outcome.Window)
	}
	if r.Hubs != nil {
		t.Error("null analisis_hubs must normalize to nil")
	}
	if r.Logistics.HubName != "" {
		t.Errorf("null hub_intermedio must normalize to empty, got %q", r.Logistics.HubName)
	}
	if len(r.Logistics.Segments) != 3 {
		t.Errorf("Segments = %d", len(r.Logistics.Segments))
	}
	if r.Factors.Event != "HolidaySale" || !r.Factors.HighSeason || r.Factors.DemandMultiplier != 1.8 {
		t.Errorf("Factors = %+v", r.Factors)
	}
	if r.Scores.Cost != 0.9 {
		t.Errorf("Scores = %+v", r.Scores)
	}
	if r.IsSplit() {
		t.Error("flat result should not be split")
	}
}

func TestNormalizeFlatWithFalseMultiFlag(t *testing.T) {
	flat := loadFixture(t, "flat.json")
	raw := append([]byte(`{"multiple_delivery_options": false,`), flat[1:]...)

	r, err := Normalize(raw, prediction.SchemaUnknown)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if r.Schema != prediction.SchemaFlat || r.IsSplit() {
		t.Errorf("Schema = %v, split = %v", r.Schema, r.IsSplit())
	}
	if len(r.Alternatives) != 1 {
		t.Errorf("Alternatives = %+v", r.Alternatives)
	}
}

func TestNormalizeMultiOption(t *testing.T) {
	r := mustNormalize(t, "multi_option.json")

	if !r.IsSplit() || len(r.Options) != 2 {
		t.Fatalf("Options = %d", len(r.Options))
	}
	rec, ok := r.Recommended()
	if !ok || rec.ID != "B" {
		t.Errorf("Recommended = %+v", rec)
	}
	if r.Options[0].Recommended {
		t.Error("option A should not be recommended")
	}
	if r.Outcome != rec.Outcome {
		t.Errorf("Outcome should mirror the recommended option: %+v", r.Outcome)
	}
	if !r.Logistics.IsZero() {
		t.Errorf("top-level logistics should stay empty for bundles: %+v", r.Logistics)
	}
	if rec.Logistics.Carrier != "Estafeta" || rec.Logistics.Fleet != prediction.FleetExternal {
		t.Errorf("option logistics = %+v", rec.Logistics)
	}

	tests := map[string]bool{
		"LIV_001": true,  // allocated by option A
		"LIV_005": true,  // allocated by option B, not evaluated
		"LIV_007": true,  // allocated by option B
		"LIV_009": false, // evaluated only
	}
	for key, want := range tests {
		s, ok := storeByKey(r, key)
		if !ok {
			t.Errorf("store %s missing", key)
			continue
		}
		if s.HasStock != want {
			t.Errorf("store %s HasStock = %v, want %v", key, s.HasStock, want)
		}
	}
}

func TestNormalizeHint(t *testing.T) {
	raw := loadFixture(t, "nested_hub.json")

	r, err := Normalize(raw, prediction.SchemaNested)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if r.Schema != prediction.SchemaNested {
		t.Errorf("hint ignored: %v", r.Schema)
	}
	if r.Hubs != nil {
		t.Error("nested layout does not read hub analysis")
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCode  apperrors.Code
		wantField string
	}{
		{
			name:     "invalid json",
			raw:      `{"ruta_seleccionada":`,
			wantCode: apperrors.ErrCodeInvalidFormat,
		},
		{
			name:     "not an object",
			raw:      `"hello"`,
			wantCode: apperrors.ErrCodeInvalidFormat,
		},
		{
			name:     "unknown shape",
			raw:      `{"status":"ok"}`,
			wantCode: apperrors.ErrCodeInvalidResult,
		},
		{
			name:      "missing postal code",
			raw:       `{"resultado_final":{},"request":{"sku_id":"LIV-004"},"tiendas_evaluadas":[{"tienda_id":"A"}]}`,
			wantCode:  apperrors.ErrCodeMissingField,
			wantField: FieldPostalCode,
		},
		{
			name:      "null request",
			raw:       `{"resultado_final":{},"request":null}`,
			wantCode:  apperrors.ErrCodeMissingField,
			wantField: FieldPostalCode,
		},
		{
			name:      "no stores",
			raw:       `{"resultado_final":{},"request":{"codigo_postal":"05050"},"tiendas_evaluadas":[]}`,
			wantCode:  apperrors.ErrCodeMissingField,
			wantField: FieldStores,
		},
		{
			name:      "no options",
			raw:       `{"multiple_delivery_options":true,"request":{"codigo_postal":"05050"},"delivery_options":null}`,
			wantCode:  apperrors.ErrCodeMissingField,
			wantField: FieldOptions,
		},
		{
			name:     "hub score without hub",
			raw:      `{"resultado_final":{},"request":{"codigo_postal":"05050"},"tiendas_evaluadas":[{"tienda_id":"A"}],"analisis_hubs":{"hub_seleccionado":null,"score_hub_seleccionado":0.9}}`,
			wantCode: apperrors.ErrCodeInvalidResult,
		},
		{
			name:     "hub score with nameless hub",
			raw:      `{"resultado_final":{},"request":{"codigo_postal":"05050"},"tiendas_evaluadas":[{"tienda_id":"A"}],"analisis_hubs":{"hub_seleccionado":{"score":1},"score_hub_seleccionado":0.9}}`,
			wantCode: apperrors.ErrCodeInvalidResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw), prediction.SchemaUnknown)
			if err == nil {
				t.Fatal("Normalize() should fail")
			}
			if !apperrors.Is(err, tt.wantCode) {
				t.Errorf("code = %v, want %v (%v)", apperrors.GetCode(err), tt.wantCode, err)
			}
			if got := apperrors.FieldOf(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestNormalizeHubAnalysisWithoutSelection(t *testing.T) {
	raw := `{"resultado_final":{},"request":{"codigo_postal":"05050"},"tiendas_evaluadas":[{"tienda_id":"A"}],` +
		`"analisis_hubs":{"hubs_evaluados":[{"nombre":"CEDIS Norte"}],"hub_seleccionado":null}}`

	r, err := Normalize([]byte(raw), prediction.SchemaUnknown)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if r.Hubs != nil {
		t.Errorf("analysis without selection should be absent, got %+v", r.Hubs)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := `{"resultado_final":null,"request":{"codigo_postal":"05050"},"tiendas_evaluadas":["Tienda Centro"],"logistica_entrega":null}`

	r, err := Normalize([]byte(raw), prediction.SchemaUnknown)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if r.Outcome != (prediction.Outcome{}) {
		t.Errorf("null outcome should default to zero: %+v", r.Outcome)
	}
	if !r.Logistics.IsZero() {
		t.Errorf("null logistics should default to zero: %+v", r.Logistics)
	}
	if len(r.Stores) != 1 || r.Stores[0].Name != "Tienda Centro" || r.Stores[0].HasStock {
		t.Errorf("Stores = %+v", r.Stores)
	}
	if r.Factors.Event != prediction.NormalEvent {
		t.Errorf("Event = %q", r.Factors.Event)
	}
}
