// Package render groups the output renderers of the decision view.
//
//   - [nodelink] draws the decision graph with Graphviz (DOT, SVG, PNG).
//   - [terminal] prints the summary panel, the store table and the edge list
//     with lipgloss for the CLI.
//
// Both consume plain data from [graph] and [prediction]; neither feeds
// anything back into the model.
//
// [nodelink]: github.com/imartinezt/logistica-front/pkg/render/nodelink
// [terminal]: github.com/imartinezt/logistica-front/pkg/render/terminal
// [graph]: github.com/imartinezt/logistica-front/pkg/graph
// [prediction]: github.com/imartinezt/logistica-front/pkg/prediction
package render
