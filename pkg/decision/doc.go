// Package decision builds the decision graph of a prediction result.
//
// Building happens in three steps:
//
//  1. [Classify] determines the route [Topology] (direct, hub-routed,
//     multi-segment or split).
//  2. Node/edge factories each produce a fragment for one concern: the
//     destination, the product, the stores, the hub, the fleet legs, the
//     external factors and the ranked alternatives. Factories are pure
//     functions of the result.
//  3. [Assemble] runs the factories that apply to the topology in a fixed
//     order and merges their fragments, keeping node names unique.
//
// [Build] chains the three and replaces a failed assembly with the
// three-node [Fallback] graph, so callers always get something to draw.
//
// # Factor Thresholds
//
// External factors become nodes only past these thresholds:
//
//	rain probability   > 60 %
//	traffic            >= Alto / High
//	security zone      >= Amarilla / Yellow
//	demand multiplier  > 1.5
//	event              any label other than "Normal"
package decision
