// Package terminal renders a decision view as styled text for the CLI.
//
// Every function returns a string so callers decide where it goes (stdout,
// a bubbletea view, a test buffer). Styling uses lipgloss; colors degrade
// to plain text when the output is not a terminal.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/imartinezt/logistica-front/pkg/format"
	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/prediction"
	"github.com/imartinezt/logistica-front/pkg/session"
	"github.com/imartinezt/logistica-front/pkg/summary"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(18)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleStocked = lipgloss.NewStyle().Foreground(colorGreen)
)

func section(title string) string {
	return styleTitle.Render(title) + "\n"
}

func keyValue(b *strings.Builder, key, value string) {
	b.WriteString(styleKey.Render(key) + " " + styleValue.Render(value) + "\n")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// Panel renders the full summary: metrics, insights, stores, factors and
// the technical details. Degraded views render the request echo and the
// reason instead of the missing sections.
func Panel(v *session.View) string {
	if v == nil {
		return styleDim.Render("Sin resultados") + "\n"
	}
	parts := []string{Request(v.Request)}
	if v.Result == nil {
		parts = append(parts, Degraded(v))
		parts = append(parts, Edges(v.Graph))
		return strings.Join(parts, "\n")
	}
	parts = append(parts, Metrics(v), Insights(v.Insights), Stores(v.Result), Factors(v.Result.Factors))
	if v.Result.IsSplit() {
		parts = append(parts, Options(v.Result))
	}
	parts = append(parts, Technical(v.Result))
	if v.Fallback {
		parts = append(parts, Degraded(v))
	}
	return strings.Join(parts, "\n")
}

// Request renders the request echo.
func Request(req prediction.Request) string {
	var b strings.Builder
	b.WriteString(section("Solicitud"))
	keyValue(&b, "Código postal", format.OrNA(req.PostalCode))
	keyValue(&b, "SKU", format.OrNA(req.ProductID))
	keyValue(&b, "Cantidad", fmt.Sprintf("%d", req.Quantity))
	if req.PurchasedAt != "" {
		keyValue(&b, "Compra", format.DateTime(req.PurchasedAt))
	}
	return b.String()
}

// Degraded explains why the view is incomplete.
func Degraded(v *session.View) string {
	var b strings.Builder
	b.WriteString(styleWarning.Render("! Vista reducida"))
	if v.ErrorCode != "" {
		b.WriteString(styleDim.Render(" [" + v.ErrorCode + "]"))
	}
	b.WriteString("\n")
	if v.Error != "" {
		b.WriteString("  " + styleDim.Render(v.Error) + "\n")
	}
	for _, w := range v.Warnings {
		b.WriteString("  " + styleDim.Render(w) + "\n")
	}
	return b.String()
}

// Metrics renders the headline metrics: cost, probability, time, distance,
// delivery badge, carrier and promise.
func Metrics(v *session.View) string {
	r := v.Result
	o := r.Outcome
	l := r.Logistics
	if rec, ok := r.Recommended(); ok && l.IsZero() {
		l = rec.Logistics
	}

	var b strings.Builder
	b.WriteString(section("Métricas"))
	keyValue(&b, "Costo", format.Currency(o.TotalCost))

	risk := summary.RiskLevelOf(o.SuccessProbability)
	prob := lipgloss.NewStyle().Foreground(lipgloss.Color(risk.Color())).Bold(true).Render(format.Percentage(o.SuccessProbability))
	if o.Confidence > 0 {
		prob += styleDim.Render(" confianza " + format.Percentage(o.Confidence))
	}
	b.WriteString(styleKey.Render("Probabilidad") + " " + prob + "\n")

	keyValue(&b, "Tiempo total", format.Hours(l.TotalHours))
	keyValue(&b, "Distancia", format.Km(l.TotalDistanceKm))

	badge := summary.DeliveryBadge(o.DeliveryType)
	badgeText := lipgloss.NewStyle().
		Background(lipgloss.Color(badge.Color())).
		Foreground(colorWhite).
		Padding(0, 1).
		Render(badge.Icon() + " " + format.OrNA(o.DeliveryType))
	b.WriteString(styleKey.Render("Tipo de entrega") + " " + badgeText + "\n")

	keyValue(&b, "Transportista", fmt.Sprintf("%s (%s)", format.OrNA(l.Carrier), l.Fleet))
	promise := format.DateTime(o.EstimatedDelivery)
	if v.RelativeDate != "" && v.RelativeDate != format.NA {
		promise += " · " + v.RelativeDate
	}
	keyValue(&b, "Entrega estimada", promise)
	if o.Window.Start != "" || o.Window.End != "" {
		keyValue(&b, "Ventana", format.OrNA(o.Window.Start)+" - "+format.OrNA(o.Window.End))
	}
	return b.String()
}

// Insights renders the insight list, one bullet per line.
func Insights(ins []summary.Insight) string {
	var b strings.Builder
	b.WriteString(section("Insights"))
	if len(ins) == 0 {
		b.WriteString(styleDim.Render("  sin insights") + "\n")
		return b.String()
	}
	for _, in := range ins {
		b.WriteString("  › " + styleValue.Render(in.Text) + "\n")
	}
	return b.String()
}

// Stores renders the store table, stocked stores first in input order.
func Stores(r *prediction.Result) string {
	var b strings.Builder
	b.WriteString(section("Tiendas"))
	if len(r.Stores) == 0 {
		b.WriteString(styleDim.Render("  sin tiendas") + "\n")
		return b.String()
	}

	stores := make([]prediction.Store, 0, len(r.Stores))
	stores = append(stores, r.StockedStores()...)
	for _, s := range r.Stores {
		if !s.HasStock {
			stores = append(stores, s)
		}
	}

	rows := make([][]string, len(stores))
	for i, s := range stores {
		stock := "no"
		if s.HasStock {
			stock = "sí"
		}
		rows[i] = []string{
			format.OrNA(s.ID),
			format.OrNA(s.Name),
			stock,
			fmt.Sprintf("%d", s.Stock),
			fmt.Sprintf("%d", s.Allocated),
			format.Km(s.DistanceKm),
			format.Currency(s.UnitPrice),
		}
	}

	t := newTable("ID", "Tienda", "Asignada", "Stock", "Unidades", "Distancia", "Precio").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if row < len(stores) && stores[row].HasStock {
				return styleStocked
			}
			return styleDim
		})
	b.WriteString(t.Render() + "\n")
	return b.String()
}

// Factors renders the external factors.
func Factors(f prediction.ExternalFactors) string {
	var b strings.Builder
	b.WriteString(section("Factores externos"))
	keyValue(&b, "Clima", fmt.Sprintf("%s · lluvia %.0f%%", format.OrNA(f.Weather), f.RainProbability))
	keyValue(&b, "Tráfico", format.OrNA(f.Traffic))
	keyValue(&b, "Zona", format.OrNA(f.SecurityZone))
	keyValue(&b, "Demanda", fmt.Sprintf("x%.1f", f.DemandMultiplier))
	event := format.OrNA(f.Event)
	if f.HighSeason {
		event += " · temporada alta"
	}
	keyValue(&b, "Evento", event)
	if f.ExtraHours > 0 || f.ExtraCostPct > 0 {
		keyValue(&b, "Impacto", fmt.Sprintf("+%s · +%.1f%% costo", format.Hours(f.ExtraHours), f.ExtraCostPct))
	}
	return b.String()
}

// Options renders the delivery options of a multi-option result.
func Options(r *prediction.Result) string {
	var b strings.Builder
	b.WriteString(section("Opciones de entrega"))
	rows := make([][]string, len(r.Options))
	for i, o := range r.Options {
		mark := ""
		if o.Recommended {
			mark = "★"
		}
		rows[i] = []string{
			mark,
			o.ID,
			format.OrNA(o.Label),
			format.Currency(o.Outcome.TotalCost),
			format.Percentage(o.Outcome.SuccessProbability),
			format.OrNA(o.Logistics.Carrier),
			fmt.Sprintf("%d", len(o.Stores)),
		}
	}
	t := newTable("", "Opción", "Descripción", "Costo", "Probabilidad", "Transportista", "Tiendas").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if row < len(r.Options) && r.Options[row].Recommended {
				return styleStocked.Bold(true)
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render() + "\n")
	return b.String()
}

// Technical renders route identifiers, fee breakdown, scores and inventory.
func Technical(r *prediction.Result) string {
	var b strings.Builder
	b.WriteString(section("Detalles técnicos"))
	keyValue(&b, "Esquema", r.Schema.String())
	keyValue(&b, "Ruta", format.OrNA(r.Logistics.RouteID))
	keyValue(&b, "Tipo de ruta", format.OrNA(r.Logistics.RouteKind))
	if r.Logistics.Score > 0 {
		keyValue(&b, "Score modelo", fmt.Sprintf("%.3f", r.Logistics.Score))
	}
	keyValue(&b, "Tiempos", fmt.Sprintf("preparación %s · tránsito %s · contingencia %s",
		format.Hours(r.Fee.PreparationHours), format.Hours(r.Fee.TransitHours), format.Hours(r.Fee.ContingencyHours)))
	s := r.Scores
	if s.Time > 0 || s.Cost > 0 || s.Reliability > 0 {
		keyValue(&b, "Scores", fmt.Sprintf("tiempo %.2f · costo %.2f · confiabilidad %.2f", s.Time, s.Cost, s.Reliability))
	}
	if inv := r.Inventory; inv.Required > 0 {
		feasible := "factible"
		if !inv.Feasible {
			feasible = "no factible"
		}
		keyValue(&b, "Inventario", fmt.Sprintf("%d/%d unidades · %s", inv.Available, inv.Required, feasible))
	}
	if r.Hubs != nil {
		keyValue(&b, "Hub", fmt.Sprintf("%s · score %.2f · %d evaluados",
			r.Hubs.Selected.Name, r.Hubs.Selected.Score, len(r.Hubs.Evaluated)))
	}
	return b.String()
}

// Edges renders the graph as a node/edge list, for terminals without an
// image viewer.
func Edges(g graph.Graph) string {
	var b strings.Builder
	b.WriteString(section("Grafo de decisión"))
	rows := make([][]string, len(g.Edges))
	for i, e := range g.Edges {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		style := "—"
		if e.Dashed {
			style = "┄"
		}
		rows[i] = []string{
			legendLetter(src.Category) + " " + e.Source,
			style,
			legendLetter(dst.Category) + " " + e.Target,
			e.Label,
		}
	}
	t := newTable("Origen", "", "Destino", "Detalle").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if row < len(g.Edges) && g.Edges[row].Dashed {
				return styleDim
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render() + "\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("  %d nodos · %d aristas", len(g.Nodes), len(g.Edges))) + "\n")
	return b.String()
}

// Legend renders the category legend with color swatches.
func Legend(entries []graph.LegendEntry) string {
	var b strings.Builder
	b.WriteString(section("Leyenda"))
	for _, e := range entries {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render("●")
		b.WriteString("  " + swatch + " " + e.Label + "\n")
	}
	return b.String()
}

// legendLetter returns the "A".."M" prefix of the category's legend label.
func legendLetter(c graph.Category) string {
	label := c.Label()
	if i := strings.Index(label, ":"); i > 0 {
		return "[" + label[:i] + "]"
	}
	return "[?]"
}
