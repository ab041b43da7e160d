// Package normalize maps every response shape of the prediction service onto
// the canonical [prediction.Result].
//
// The service has served four incompatible shapes over time. They differ in
// where each section lives, not in what it means, so normalization is driven
// by one layout table per schema version and a shared set of section
// readers. Every read defaults when a key is missing, and nulls are checked
// before traversal.
//
// Two rules are enforced here and nowhere else:
//
//   - A store holds stock only when it appears in the allocation list of the
//     result. Nearby, authorized and "with stock" lists are advisory.
//   - Hub analysis is either absent or carries a named selected hub. A hub
//     score without a hub is rejected as INVALID_RESULT.
package normalize

import (
	"github.com/tidwall/gjson"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

// Required field names reported through MISSING_REQUIRED_FIELD.
const (
	FieldPostalCode = "request.postal_code"
	FieldStores     = "stores"
	FieldOptions    = "delivery_options"
)

// layout locates the sections of one schema version. Paths are gjson paths
// relative to the document root; "" addresses the root itself.
type layout struct {
	request      []string // request echo objects, earlier wins
	outcome      string
	logistics    []string // merged field by field, earlier wins
	allocation   []string
	candidates   []string
	advisory     []string // never imply stock
	hubs         string
	factors      string
	alternatives string
	fee          string
	scores       string
	inventory    string
	options      string
}

var nestedAdvisory = []string{
	"explicabilidad_extendida.analisis_tiendas.tiendas_cercanas",
	"explicabilidad_extendida.analisis_tiendas.tiendas_autorizadas",
	"explicabilidad_extendida.analisis_tiendas.tiendas_con_stock",
}

var layouts = map[prediction.SchemaVersion]layout{
	prediction.SchemaNested: {
		request:      []string{"explicabilidad.request_procesado", "request"},
		outcome:      "",
		logistics:    []string{"ruta_seleccionada", ""},
		allocation:   []string{"ruta_seleccionada.split_inventory.ubicaciones"},
		candidates:   []string{"explicabilidad_extendida.analisis_tiendas.tiendas_detalle"},
		advisory:     nestedAdvisory,
		factors:      "explicabilidad.factores_externos",
		alternatives: "explicabilidad_extendida.candidatos",
		fee:          "explicabilidad.fee_calculation",
		scores:       "ruta_seleccionada",
		inventory:    "ruta_seleccionada.split_inventory",
	},
	prediction.SchemaNestedHub: {
		request:      []string{"explicabilidad.request_procesado", "request"},
		outcome:      "",
		logistics:    []string{"logistica_entrega", "ruta_seleccionada", ""},
		allocation:   []string{"ruta_seleccionada.split_inventory.ubicaciones"},
		candidates:   []string{"explicabilidad_extendida.analisis_tiendas.tiendas_detalle"},
		advisory:     nestedAdvisory,
		hubs:         "explicabilidad_extendida.analisis_hubs",
		factors:      "explicabilidad.factores_externos",
		alternatives: "explicabilidad_extendida.candidatos",
		fee:          "explicabilidad.fee_calculation",
		scores:       "ruta_seleccionada",
		inventory:    "ruta_seleccionada.split_inventory",
	},
	prediction.SchemaFlat: {
		request:      []string{"request"},
		outcome:      "resultado_final",
		logistics:    []string{"logistica_entrega"},
		allocation:   []string{"asignacion_inventario.ubicaciones"},
		candidates:   []string{"tiendas_evaluadas"},
		advisory:     []string{"tiendas_cercanas", "tiendas_autorizadas", "tiendas_con_stock"},
		hubs:         "analisis_hubs",
		factors:      "factores_externos",
		alternatives: "candidatos_alternativos",
		fee:          "fee_calculation",
		scores:       "logistica_entrega",
		inventory:    "asignacion_inventario",
	},
	prediction.SchemaMultiOption: {
		request:      []string{"request"},
		candidates:   []string{"tiendas_evaluadas"},
		advisory:     []string{"tiendas_cercanas"},
		factors:      "factores_externos",
		alternatives: "candidatos_alternativos",
		fee:          "fee_calculation",
		options:      "delivery_options",
	},
}

// Detect infers the schema version of a raw result. It returns
// SchemaUnknown when the payload is not a JSON object or matches no known
// shape.
func Detect(raw []byte) prediction.SchemaVersion {
	if !gjson.ValidBytes(raw) {
		return prediction.SchemaUnknown
	}
	return detect(gjson.ParseBytes(raw))
}

func detect(root gjson.Result) prediction.SchemaVersion {
	if !root.IsObject() {
		return prediction.SchemaUnknown
	}
	has := func(path string) bool { return root.Get(path).Exists() }

	// A false flag is common on single-option results.
	multi := root.Get("multiple_delivery_options").Bool() ||
		(root.Get("delivery_options").IsArray() && len(root.Get("delivery_options").Array()) > 0)

	switch {
	case multi:
		return prediction.SchemaMultiOption
	case has("resultado_final"):
		return prediction.SchemaFlat
	case has("ruta_seleccionada") || has("explicabilidad"):
		if has("explicabilidad_extendida.analisis_hubs") || has("analisis_hubs") || has("logistica_entrega") {
			return prediction.SchemaNestedHub
		}
		return prediction.SchemaNested
	}
	return prediction.SchemaUnknown
}

// Normalize parses a raw prediction result into the canonical model.
//
// hint selects the schema version; SchemaUnknown asks Normalize to infer it
// with [Detect]. Errors are coded: INVALID_FORMAT for malformed JSON,
// INVALID_RESULT for unrecognized or contradictory results, and
// MISSING_REQUIRED_FIELD naming the absent field.
func Normalize(raw []byte, hint prediction.SchemaVersion) (*prediction.Result, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "prediction result is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "prediction result must be a JSON object")
	}

	version := hint
	if version == prediction.SchemaUnknown {
		version = detect(root)
	}
	if version == prediction.SchemaUnknown {
		return nil, apperrors.New(apperrors.ErrCodeInvalidResult, "unrecognized prediction result shape")
	}
	lay, ok := layouts[version]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unsupported schema version %d", int(version))
	}

	r := &prediction.Result{
		Schema:       version,
		Request:      parseRequest(sections(root, lay.request)),
		Factors:      parseFactors(section(root, lay.factors)),
		Alternatives: parseAlternatives(list(root, lay.alternatives)),
		Fee:          parseFee(section(root, lay.fee)),
		Scores:       parseScores(section(root, lay.scores)),
		Inventory:    parseInventory(section(root, lay.inventory)),
	}
	if r.Request.PostalCode == "" {
		return nil, apperrors.MissingField(FieldPostalCode)
	}

	hubs, err := parseHubs(root, lay.hubs)
	if err != nil {
		return nil, err
	}
	r.Hubs = hubs

	var allocated []prediction.Store
	if lay.options != "" {
		opts, err := parseOptions(root, lay.options)
		if err != nil {
			return nil, err
		}
		r.Options = opts
		rec, _ := r.Recommended()
		r.Outcome = rec.Outcome
		for _, o := range opts {
			allocated = append(allocated, o.Stores...)
		}
	} else {
		r.Outcome = parseOutcome(section(root, lay.outcome))
		r.Logistics = parseLogistics(sections(root, lay.logistics))
		allocated = parseAllocation(lists(root, lay.allocation))
		if r.Hubs != nil && r.Logistics.HubName == "" {
			r.Logistics.HubName = r.Hubs.Selected.Name
		}
	}

	r.Stores = mergeStores(
		parseStores(lists(root, lay.candidates)),
		allocated,
		parseStores(lists(root, lay.advisory)),
	)
	if len(r.Stores) == 0 {
		return nil, apperrors.MissingField(FieldStores)
	}
	return r, nil
}
