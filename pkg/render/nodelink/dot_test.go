package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/imartinezt/logistica-front/pkg/graph"
)

func sampleGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{Name: "SKU: LIV-004", Category: graph.CategoryProduct, Size: 70},
			{Name: "Liverpool Perisur", Category: graph.CategoryStoreStock, Size: 80, Selected: true, Description: "LIV_001 · stock 12"},
			{Name: "Liverpool Santa Fe", Category: graph.CategoryStoreNoStock, Size: 50, Opacity: 0.6},
			{Name: "Cliente CP: 05050", Category: graph.CategoryDestination, Size: 90, Selected: true},
		},
		Edges: []graph.Edge{
			{Source: "SKU: LIV-004", Target: "Liverpool Perisur", Label: "3 u", Width: 4},
			{Source: "Liverpool Perisur", Target: "Cliente CP: 05050", Width: 6},
			{Source: "Liverpool Santa Fe", Target: "Cliente CP: 05050", Dashed: true, Width: 2, Opacity: 0.5},
		},
		Categories: graph.Legend(),
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`"SKU: LIV-004" -> "Liverpool Perisur" [label="3 u", penwidth=4.0];`,
		`"Liverpool Santa Fe" -> "Cliente CP: 05050" [penwidth=2.0, style=dashed, color="#66666680"];`,
		`fillcolor="` + graph.CategoryDestination.Color() + `"`,
		"penwidth=3",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "cluster_legend") {
		t.Error("legend should be opt-in")
	}
	if strings.Contains(dot, `label="Liverpool Perisur\n`) {
		t.Error("descriptions should only be in labels when detailed")
	}
}

func TestToDOTOptions(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{Detailed: true, Vertical: true, Legend: true})

	if !strings.Contains(dot, "rankdir=TB;") {
		t.Error("vertical layout not applied")
	}
	if !strings.Contains(dot, `label="Liverpool Perisur\nLIV_001 · stock 12"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, "cluster_legend") {
		t.Fatal("legend cluster missing")
	}
	if !strings.Contains(dot, graph.CategoryProduct.Label()) {
		t.Error("legend should list used categories")
	}
	if strings.Contains(dot, graph.CategoryWeather.Label()) {
		t.Error("legend should skip unused categories")
	}
}

func TestWithAlpha(t *testing.T) {
	tests := []struct {
		color   string
		opacity float64
		want    string
	}{
		{"#4285F4", 0, "#4285F4"},
		{"#4285F4", 1, "#4285F4"},
		{"#4285F4", 0.6, "#4285F499"},
		{"red", 0.5, "red"},
	}
	for _, tt := range tests {
		if got := withAlpha(tt.color, tt.opacity); got != tt.want {
			t.Errorf("withAlpha(%q, %v) = %q, want %q", tt.color, tt.opacity, got, tt.want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleGraph(), Options{Legend: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Fatal("output is not SVG")
	}
	if !bytes.Contains(svg, []byte("Liverpool Perisur")) {
		t.Error("node label missing from SVG")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("expected error for invalid DOT")
	}
}
