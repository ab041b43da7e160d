// Package pipeline provides the core prediction-to-view pipeline.
//
// This package implements the complete fetch → normalize → assemble → render
// pipeline shared by the CLI and the HTTP API, so both entry points build
// views and artifacts the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: call the prediction service (optional; raw results can also be
//     read from files or request bodies)
//  2. Build: normalize the raw result, assemble the decision graph, extract
//     insights and the relative delivery date into a [session.View]
//  3. Render: turn the view's graph into SVG, PNG or DOT, or the view itself
//     into JSON
//
// Build never fails for a result that reached it: schema and assembly
// errors degrade the view to the fallback graph and are recorded on it.
// Only fetch errors (network, timeout, invalid input) are returned.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	view, err := runner.Predict(ctx, client, req)
//	if err != nil {
//	    return err // network failure, nothing to show
//	}
//	artifacts, err := runner.Render(ctx, view, pipeline.Options{Formats: []string{"svg"}})
package pipeline

import (
	"slices"
	"strings"

	"github.com/imartinezt/logistica-front/pkg/cache"
	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/render/nodelink"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// DefaultScale is the PNG resolution multiplier.
const DefaultScale = 2.0

// maxScale bounds PNG output size.
const maxScale = 8.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// Options configures the render stage.
// This struct supports JSON serialization for API requests.
type Options struct {
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // append node descriptions to labels
	Vertical bool     `json:"vertical,omitempty"` // top-to-bottom layout
	Legend   bool     `json:"legend,omitempty"`   // category legend cluster
	Scale    float64  `json:"scale,omitempty"`    // PNG only
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats parses a comma-separated format list. Empty input means SVG.
// Duplicates are dropped.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{FormatSVG}
	}
	return out
}

// ValidateAndSetDefaults checks the options and fills unset fields.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 || o.Scale > maxScale {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "invalid scale: %g (must be in (0, %g])", o.Scale, maxScale)
	}
	return nil
}

// NodelinkOptions returns the diagram options.
func (o Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed, Vertical: o.Vertical, Legend: o.Legend}
}

// ArtifactKeyOpts returns cache key options for one format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Vertical: o.Vertical,
		Legend:   o.Legend,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}

// cacheable reports whether a format depends on the graph alone. JSON
// serializes the whole view, which changes with every prediction.
func cacheable(format string) bool {
	return format != FormatJSON
}
