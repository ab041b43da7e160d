package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/render/nodelink"
	"github.com/imartinezt/logistica-front/pkg/session"
)

// RenderView generates output artifacts for a view in the requested
// formats, without caching. opts must already be validated.
func RenderView(ctx context.Context, view *session.View, opts Options) (map[string][]byte, error) {
	artifacts, err := RenderGraph(ctx, view.Graph, withoutFormat(opts, FormatJSON))
	if err != nil {
		return nil, err
	}
	for _, format := range opts.Formats {
		if format != FormatJSON {
			continue
		}
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		artifacts[FormatJSON] = data
	}
	return artifacts, nil
}

// RenderGraph generates diagram artifacts for a decision graph. The DOT
// source is built once and shared by every format.
func RenderGraph(ctx context.Context, g graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	if len(opts.Formats) == 0 {
		return artifacts, nil
	}

	dot := nodelink.ToDOT(g, opts.NodelinkOptions())
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			scale := opts.Scale
			if scale == 0 {
				scale = DefaultScale
			}
			data, err = nodelink.RenderPNG(ctx, dot, scale)
		case FormatJSON:
			data, err = graph.MarshalGraph(g)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func withoutFormat(opts Options, format string) Options {
	out := opts
	out.Formats = nil
	for _, f := range opts.Formats {
		if f != format {
			out.Formats = append(out.Formats, f)
		}
	}
	return out
}
