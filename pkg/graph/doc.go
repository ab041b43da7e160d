// Package graph provides the serialization types for decision graphs.
//
// A decision graph is the node-link view of one prediction result: the
// product, the candidate stores, the hub and fleet legs, the destination and
// the external factors that influenced the decision. This package defines
// its canonical wire format, used for JSON files, API responses, caching and
// the DOT renderer.
//
// # Format
//
//	{
//	  "nodes": [{"name": "SKU: LIV-004", "category": "product", "size": 60}],
//	  "edges": [{"source": "SKU: LIV-004", "target": "Liverpool Perisur", "width": 4}],
//	  "categories": [{"category": "product", "label": "A: Producto", "color": "#4285F4"}]
//	}
//
// Node names are the node identity: they are unique within a graph and every
// edge endpoint names an existing node. [Graph.Validate] checks both.
//
// # Legend
//
// The legend is fixed. [Legend] returns every [Category] in display order,
// whether or not a given graph uses it, so clients can render a stable key.
//
// # Concurrency
//
// Graph values are plain data and safe for concurrent reads.
package graph
