package graph_test

import (
	"fmt"
	"strings"

	"github.com/imartinezt/logistica-front/pkg/graph"
)

func ExampleLegend() {
	for _, e := range graph.Legend()[:3] {
		fmt.Println(e.Category, e.Label)
	}
	// Output:
	// product A: Producto
	// store_with_stock B: Tienda con stock
	// store_no_stock C: Tienda sin stock
}

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [
			{"name": "SKU: LIV-004", "category": "product"},
			{"name": "Cliente CP: 05050", "category": "destination"}
		],
		"edges": [
			{"source": "SKU: LIV-004", "target": "Cliente CP: 05050"}
		]
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", len(g.Nodes))
	fmt.Println("Edges into destination:", len(g.EdgesTo("Cliente CP: 05050")))
	// Output:
	// Nodes: 2
	// Edges into destination: 1
}
