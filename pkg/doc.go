// Package pkg provides the core libraries of the logistica decision
// dashboard.
//
// # Overview
//
// Logistica turns the answer of a delivery prediction service (fee, date,
// route, stores, external factors) into a decision view: headline metrics,
// plain-language insights and a graph of how the order travels from the
// stores to the customer. The pkg directory is organized into four areas:
//
//  1. Model: [prediction] (canonical result), [graph] (nodes, edges, legend)
//  2. Domain logic: [normalize], [decision], [summary]
//  3. Infrastructure: [client], [cache], [config], [session], [observability]
//  4. Orchestration and output: [pipeline], [render], [server]
//
// # Architecture
//
// The typical data flow:
//
//	Prediction service (JSON)
//	         ↓
//	    [client] package (POST, timeout, coded errors)
//	         ↓
//	    [normalize] package (any schema version -> prediction.Result)
//	         ↓
//	    [decision] package (topology + decision graph)
//	         ↓
//	    [summary] package (insights, relative date)
//	         ↓
//	    [session] View -> [render] DOT/SVG/PNG, terminal panel, JSON
//
// # Quick Start
//
// Build a view from a saved result and draw it:
//
//	import (
//	    "context"
//	    "github.com/imartinezt/logistica-front/pkg/pipeline"
//	    "github.com/imartinezt/logistica-front/pkg/prediction"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	view := runner.BuildView(ctx, raw, prediction.SchemaUnknown)
//	artifacts, err := runner.Render(ctx, view, pipeline.Options{Formats: []string{"svg"}})
//
// Results that cannot be normalized never fail the build: the view degrades
// to the fallback graph and carries the error code.
//
// [prediction]: github.com/imartinezt/logistica-front/pkg/prediction
// [graph]: github.com/imartinezt/logistica-front/pkg/graph
// [normalize]: github.com/imartinezt/logistica-front/pkg/normalize
// [decision]: github.com/imartinezt/logistica-front/pkg/decision
// [summary]: github.com/imartinezt/logistica-front/pkg/summary
// [client]: github.com/imartinezt/logistica-front/pkg/client
// [cache]: github.com/imartinezt/logistica-front/pkg/cache
// [config]: github.com/imartinezt/logistica-front/pkg/config
// [session]: github.com/imartinezt/logistica-front/pkg/session
// [observability]: github.com/imartinezt/logistica-front/pkg/observability
// [pipeline]: github.com/imartinezt/logistica-front/pkg/pipeline
// [render]: github.com/imartinezt/logistica-front/pkg/render
// [server]: github.com/imartinezt/logistica-front/pkg/server
package pkg
