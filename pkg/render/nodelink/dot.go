package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/imartinezt/logistica-front/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed appends node descriptions to the labels.
	Detailed bool
	// Vertical lays the graph out top to bottom instead of left to right.
	Vertical bool
	// Legend adds a cluster listing the categories used by the graph.
	Legend bool
}

// pxPerInch converts node sizes (chart pixels) to Graphviz inches.
const pxPerInch = 72.0

// ToDOT converts a decision graph to Graphviz DOT source.
//
// Nodes are filled with their category color and faded by their opacity.
// Selected nodes get a heavy outline. Edge width maps to pen width and
// dashed edges keep their dash style.
func ToDOT(g graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Vertical {
		buf.WriteString("  rankdir=TB;\n")
	} else {
		buf.WriteString("  rankdir=LR;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=11, fixedsize=false];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=9, color=\"#666666\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	if opts.Legend {
		writeLegend(&buf, g)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, detailed bool) []string {
	label := n.Name
	if detailed && n.Description != "" {
		label += "\n" + n.Description
	}
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", withAlpha(n.Category.Color(), n.Opacity)),
		fmt.Sprintf("width=%.2f", size(n.Size)),
	}
	if n.Description != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Description))
	}
	if n.Selected {
		attrs = append(attrs, "penwidth=3", "color=\"#222222\"")
	} else {
		attrs = append(attrs, "color=\"#ffffff\"")
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	if e.Width > 0 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%.1f", e.Width))
	}
	if e.Dashed {
		attrs = append(attrs, "style=dashed")
	}
	if e.Opacity > 0 && e.Opacity < 1 {
		attrs = append(attrs, fmt.Sprintf("color=%q", withAlpha("#666666", e.Opacity)))
	}
	return attrs
}

// writeLegend emits one plaintext row per category present in g, in legend
// order.
func writeLegend(buf *bytes.Buffer, g graph.Graph) {
	used := make(map[graph.Category]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		used[n.Category] = true
	}
	entries := g.Categories
	if len(entries) == 0 {
		entries = graph.Legend()
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Leyenda\";\n")
	buf.WriteString("    style=rounded;\n")
	buf.WriteString("    color=\"#cccccc\";\n")
	for i, le := range entries {
		if !used[le.Category] {
			continue
		}
		fmt.Fprintf(buf, "    \"legend_%d\" [label=%q, shape=box, style=\"rounded,filled\", fillcolor=%q, fontsize=9];\n",
			i, le.Label, le.Color)
	}
	buf.WriteString("  }\n")
}

// size converts a node size to inches, with a floor so tiny nodes stay
// legible.
func size(px float64) float64 {
	if px <= 0 {
		px = 40
	}
	return math.Max(px/pxPerInch, 0.4)
}

// withAlpha appends an alpha channel to a #rrggbb color. Opacity 0 means
// unset and leaves the color opaque.
func withAlpha(color string, opacity float64) string {
	if opacity <= 0 || opacity >= 1 || len(color) != 7 {
		return color
	}
	return fmt.Sprintf("%s%02x", color, int(math.Round(opacity*255)))
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz. The scale factor
// multiplies the default 96 dpi; 2.0 suits high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	if scale > 0 && scale != 1 {
		dot = strings.Replace(dot, "digraph G {\n", fmt.Sprintf("digraph G {\n  dpi=%.0f;\n", 96*scale), 1)
	}
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
