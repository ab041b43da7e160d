// Package nodelink renders decision graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT, then render it:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Legend: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Styling
//
// Node fill comes from the category color of the fixed legend, faded by the
// node opacity. Selected nodes (the destination, stocked stores, the chosen
// hub, the recommended option) get a dark outline. Edge width maps to pen
// width; dashed edges mark advisory relations such as stores without stock,
// external factors and discarded alternatives.
//
// # Dependencies
//
// Rendering runs Graphviz in-process through [github.com/goccy/go-graphviz],
// so no external binaries are needed for SVG or PNG output.
package nodelink
