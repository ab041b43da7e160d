package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

// Time breakdown defaults used by the service when it omits fee_calculation.
const (
	defaultPreparationHours = 1
	defaultTransitHours     = 13.5
	defaultContingencyHours = 1.75
)

func parseRequest(objs []gjson.Result) prediction.Request {
	return prediction.Request{
		PostalCode:  strings.TrimSpace(pick(objs, "codigo_postal", "cp", "postal_code").String()),
		ProductID:   strings.TrimSpace(pick(objs, "sku_id", "sku", "product_id").String()),
		Quantity:    int(pick(objs, "cantidad", "quantity").Int()),
		PurchasedAt: strings.TrimSpace(pick(objs, "fecha_compra", "purchase_timestamp").String()),
	}
}

func parseOutcome(obj gjson.Result) prediction.Outcome {
	win := first(obj, "rango_horario", "ventana_entrega")
	return prediction.Outcome{
		TotalCost:          num(obj, "costo_envio_mxn", "costo_mxn", "costo_total_mxn", "costo"),
		SuccessProbability: num(obj, "probabilidad_cumplimiento", "probabilidad"),
		Confidence:         num(obj, "confianza_prediccion", "confianza"),
		DeliveryType:       str(obj, "tipo_entrega"),
		EstimatedDelivery:  str(obj, "fecha_entrega_estimada", "fecha_entrega"),
		Window: prediction.TimeWindow{
			Start: str(win, "inicio"),
			End:   str(win, "fin"),
		},
	}
}

func parseLogistics(objs []gjson.Result) prediction.Logistics {
	var segs []prediction.Segment
	if v := pick(objs, "segmentos"); v.IsArray() {
		segs = parseSegments(v.Array())
	}

	l := prediction.Logistics{
		RouteID:         strings.TrimSpace(pick(objs, "ruta_id").String()),
		RouteKind:       strings.TrimSpace(pick(objs, "tipo_ruta").String()),
		TotalDistanceKm: pick(objs, "distancia_total_km").Float(),
		TotalHours:      pick(objs, "tiempo_total_horas", "tiempo_total_h").Float(),
		Carrier:         strings.TrimSpace(pick(objs, "carrier", "carrier_principal").String()),
		Fleet:           prediction.ParseFleetKind(pick(objs, "tipo_flota").String()),
		HubName:         label(pick(objs, "hub_intermedio")),
		Segments:        segs,
		Score:           pick(objs, "score_lightgbm", "score").Float(),
	}

	if len(segs) > 0 {
		if l.Fleet == prediction.FleetUnknown {
			l.Fleet = segs[0].Fleet
		}
		if l.Carrier == "" {
			l.Carrier = segs[0].Carrier
		}
		if l.TotalDistanceKm == 0 && l.TotalHours == 0 {
			for _, s := range segs {
				l.TotalDistanceKm += s.DistanceKm
				l.TotalHours += s.Hours
			}
		}
	}
	return l
}

func parseSegments(items []gjson.Result) []prediction.Segment {
	segs := make([]prediction.Segment, 0, len(items))
	for _, it := range items {
		if !it.IsObject() {
			continue
		}
		segs = append(segs, prediction.Segment{
			Origin:      label(first(it, "origen", "origen_nombre")),
			Destination: label(first(it, "destino", "destino_nombre")),
			DistanceKm:  num(it, "distancia_km"),
			Hours:       num(it, "tiempo_horas", "tiempo_estimado_horas"),
			Carrier:     str(it, "carrier"),
			Fleet:       prediction.ParseFleetKind(str(it, "tipo_flota")),
		})
	}
	return segs
}

// parseHubs reads the hub analysis section. An absent or null section, or
// one without a selected hub and without a selected-hub score, yields nil.
// A selected-hub score next to a null or nameless hub is contradictory.
func parseHubs(root gjson.Result, path string) (*prediction.HubAnalysis, error) {
	if path == "" {
		return nil, nil
	}
	sec := root.Get(path)
	if !present(sec) {
		return nil, nil
	}
	if !sec.IsObject() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidResult, "%s must be an object", path)
	}

	var evaluated []prediction.Hub
	for _, it := range list(sec, "hubs_evaluados") {
		if h := parseHub(it); h.Name != "" {
			evaluated = append(evaluated, h)
		}
	}

	sel := sec.Get("hub_seleccionado")
	score := sec.Get("score_hub_seleccionado")
	name := label(sel)
	if name == "" {
		if present(score) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidResult,
				"%s.score_hub_seleccionado is set but no hub is selected", path)
		}
		return nil, nil
	}

	selected := prediction.Hub{Name: name}
	if sel.IsObject() {
		selected = parseHub(sel)
	} else {
		for _, h := range evaluated {
			if h.Name == name {
				selected = h
				break
			}
		}
	}
	if present(score) {
		selected.Score = score.Float()
	}
	return &prediction.HubAnalysis{Evaluated: evaluated, Selected: selected}, nil
}

func parseHub(v gjson.Result) prediction.Hub {
	if v.Type == gjson.String {
		return prediction.Hub{Name: strings.TrimSpace(v.String())}
	}
	return prediction.Hub{
		Name:            label(v),
		Score:           num(v, "score", "score_total"),
		Coverage:        str(v, "cobertura", "zona_cobertura"),
		ProcessingHours: num(v, "tiempo_procesamiento_horas", "tiempo_procesamiento_h"),
		InboundKm:       num(v, "distancia_desde_tienda_km", "distancia_entrada_km"),
		OutboundKm:      num(v, "distancia_a_destino_km", "distancia_salida_km"),
	}
}

func parseFactors(obj gjson.Result) prediction.ExternalFactors {
	return prediction.ExternalFactors{
		Weather:          str(obj, "condicion_clima", "clima"),
		RainProbability:  num(obj, "probabilidad_lluvia"),
		TemperatureC:     num(obj, "temperatura_celsius", "temperatura"),
		WindKmh:          num(obj, "viento_kmh"),
		Traffic:          str(obj, "trafico_nivel", "trafico"),
		SecurityZone:     str(obj, "zona_seguridad"),
		Criticality:      str(obj, "criticidad_logistica", "criticidad"),
		DemandMultiplier: numOr(obj, 1, "factor_demanda"),
		Event:            parseEvent(obj),
		ExtraHours:       num(obj, "impacto_tiempo_extra_horas"),
		ExtraCostPct:     num(obj, "impacto_costo_extra_pct"),
		HighSeason:       boolean(obj, "es_temporada_alta"),
	}
}

// parseEvent reads the detected event, sent either as a single label or as
// a list. Listed events other than "Normal" are joined.
func parseEvent(obj gjson.Result) string {
	if ev := str(obj, "evento_detectado", "evento"); ev != "" {
		return ev
	}
	var names []string
	for _, it := range list(obj, "eventos_detectados") {
		if n := label(it); n != "" && !strings.EqualFold(n, prediction.NormalEvent) {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return prediction.NormalEvent
	}
	return strings.Join(names, ", ")
}

// parseAlternatives reads ranked candidates, skipping any entry flagged as
// the selected one. Entries without a rank take their list position.
func parseAlternatives(items []gjson.Result) []prediction.Alternative {
	var alts []prediction.Alternative
	for i, it := range items {
		if !it.IsObject() || boolean(it, "seleccionado", "seleccionada", "es_seleccionado") {
			continue
		}
		rank := integer(it, "ranking", "rank", "posicion")
		if rank <= 0 {
			rank = i + 1
		}
		alt := prediction.Alternative{
			Rank:               rank,
			Label:              str(it, "descripcion", "ruta_id", "candidato_id", "nombre"),
			TotalCost:          num(it, "costo_mxn", "costo_envio_mxn", "costo"),
			SuccessProbability: num(it, "probabilidad_cumplimiento", "probabilidad"),
			Hours:              num(it, "tiempo_total_horas", "tiempo_horas"),
		}
		if alt.Label == "" {
			alt.Label = fmt.Sprintf("Alternativa %d", rank)
		}
		for _, s := range list(it, "tiendas") {
			if n := label(s); n != "" {
				alt.Stores = append(alt.Stores, n)
			}
		}
		alts = append(alts, alt)
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Rank < alts[j].Rank })
	return alts
}

func parseFee(obj gjson.Result) prediction.FeeBreakdown {
	return prediction.FeeBreakdown{
		PreparationHours: numOr(obj, defaultPreparationHours, "tiempo_preparacion"),
		TransitHours:     numOr(obj, defaultTransitHours, "tiempo_transito"),
		ContingencyHours: numOr(obj, defaultContingencyHours, "tiempo_contingencia"),
	}
}

func parseScores(obj gjson.Result) prediction.RouteScores {
	return prediction.RouteScores{
		Time:        num(obj, "score_tiempo"),
		Cost:        num(obj, "score_costo"),
		Reliability: num(obj, "score_confiabilidad"),
	}
}

func parseInventory(obj gjson.Result) prediction.Inventory {
	return prediction.Inventory{
		Required:  integer(obj, "cantidad_total_requerida"),
		Available: integer(obj, "cantidad_total_disponible"),
		Feasible:  boolean(obj, "es_split_factible"),
	}
}

// parseOptions reads the delivery options of a multi-option result. The
// option named by recomendacion.opcion_id (or flagged itself) is the
// recommended one; without any, the first option is.
func parseOptions(root gjson.Result, path string) ([]prediction.DeliveryOption, error) {
	items := list(root, path)
	if len(items) == 0 {
		return nil, apperrors.MissingField(FieldOptions)
	}
	recID := str(root, "recomendacion.opcion_id", "opcion_recomendada")

	opts := make([]prediction.DeliveryOption, 0, len(items))
	anyRecommended := false
	for i, it := range items {
		if !it.IsObject() {
			continue
		}
		id := str(it, "opcion_id", "id")
		if id == "" {
			id = fmt.Sprintf("opcion_%d", i+1)
		}
		out := section(it, "resultado")
		if !out.IsObject() {
			out = it
		}
		opt := prediction.DeliveryOption{
			ID:          id,
			Label:       str(it, "descripcion", "nombre"),
			Outcome:     parseOutcome(out),
			Logistics:   parseLogistics(sections(it, []string{"logistica", "logistica_entrega"})),
			Stores:      parseAllocation(list(it, "ubicaciones")),
			Recommended: (recID != "" && id == recID) || boolean(it, "recomendada", "es_recomendada"),
		}
		if opt.Label == "" {
			opt.Label = id
		}
		anyRecommended = anyRecommended || opt.Recommended
		opts = append(opts, opt)
	}
	if len(opts) == 0 {
		return nil, apperrors.MissingField(FieldOptions)
	}
	if !anyRecommended {
		opts[0].Recommended = true
	}
	return opts, nil
}
