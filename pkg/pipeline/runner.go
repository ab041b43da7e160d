package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/imartinezt/logistica-front/pkg/cache"
	"github.com/imartinezt/logistica-front/pkg/decision"
	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/normalize"
	"github.com/imartinezt/logistica-front/pkg/observability"
	"github.com/imartinezt/logistica-front/pkg/prediction"
	"github.com/imartinezt/logistica-front/pkg/session"
	"github.com/imartinezt/logistica-front/pkg/summary"
)

// Predictor fetches a raw prediction result. *client.Client implements it.
type Predictor interface {
	Predict(ctx context.Context, req prediction.Request) ([]byte, error)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger: it doesn't
// store views. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedGraph is the cache form of an assembled graph.
type cachedGraph struct {
	Graph     graph.Graph       `json:"graph"`
	Topology  decision.Topology `json:"topology"`
	Fallback  bool              `json:"fallback,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
	Error     string            `json:"error,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// Predict fetches a prediction for req and builds its view.
//
// Fetch failures are returned as is and produce no view: they are terminal
// for the request. Everything after a successful fetch degrades instead of
// failing, so a nil error always comes with a non-nil view.
func (r *Runner) Predict(ctx context.Context, p Predictor, req prediction.Request) (*session.View, error) {
	start := time.Now()
	raw, err := p.Predict(ctx, req)
	if err != nil {
		if apperrors.IsTerminal(err) {
			r.Logger.Error("prediction failed", "code", apperrors.GetCode(err), "err", err)
		} else {
			r.Logger.Warn("prediction rejected", "code", apperrors.GetCode(err), "err", err)
		}
		return nil, err
	}
	r.Logger.Debug("fetched prediction", "bytes", len(raw), "duration", time.Since(start))
	return r.buildView(ctx, raw, prediction.SchemaUnknown, &req), nil
}

// BuildView turns a raw prediction result into a view. hint selects the
// schema version; SchemaUnknown detects it. It never fails: results that
// cannot be normalized produce a degraded view carrying the fallback graph
// and the error.
func (r *Runner) BuildView(ctx context.Context, raw []byte, hint prediction.SchemaVersion) *session.View {
	return r.buildView(ctx, raw, hint, nil)
}

func (r *Runner) buildView(ctx context.Context, raw []byte, hint prediction.SchemaVersion, req *prediction.Request) *session.View {
	view := &session.View{ID: session.NewID(), CreatedAt: time.Now().UTC()}

	start := time.Now()
	result, err := normalize.Normalize(raw, hint)
	schema := hint
	if result != nil {
		schema = result.Schema
	} else if schema == prediction.SchemaUnknown {
		schema = normalize.Detect(raw)
	}
	observability.Pipeline().OnNormalize(ctx, schema.String(), time.Since(start), err)

	if err != nil {
		r.Logger.Warn("prediction result could not be normalized", "code", apperrors.GetCode(err), "err", err)
		echo := &prediction.Result{}
		if req != nil {
			echo.Request = *req
		}
		view.Request = echo.Request
		view.Graph = decision.Fallback(echo)
		view.Fallback = true
		view.ErrorCode = string(apperrors.GetCode(err))
		view.Error = apperrors.UserMessage(err)
		view.RelativeDate = "N/A"
		return view
	}

	view.Request = result.Request
	view.Result = result
	r.assemble(ctx, raw, hint, result, view)
	view.Insights = summary.Extract(result)
	view.RelativeDate = summary.RelativeDate(result.Request.PurchasedAt, result.Outcome.EstimatedDelivery)

	r.Logger.Debug("built view",
		"id", view.ID,
		"schema", result.Schema,
		"topology", view.Topology,
		"insights", len(view.Insights))
	return view
}

// assemble fills the graph fields of view, reusing a cached graph of the
// same raw result when there is one.
func (r *Runner) assemble(ctx context.Context, raw []byte, hint prediction.SchemaVersion, result *prediction.Result, view *session.View) {
	key := r.Keyer.ResultKey(cache.Hash(raw), cache.GraphKeyOpts{Schema: hint.String()})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var cg cachedGraph
		if err := json.Unmarshal(data, &cg); err == nil {
			observability.Cache().OnCacheHit(ctx, "graph")
			applyGraph(view, cg)
			return
		}
	}
	observability.Cache().OnCacheMiss(ctx, "graph")

	start := time.Now()
	built := decision.Build(result, r.Logger)
	cg := cachedGraph{
		Graph:    built.Graph,
		Topology: built.Topology,
		Fallback: built.Fallback,
		Warnings: built.Warnings,
	}
	if built.Err != nil {
		cg.ErrorCode = string(apperrors.GetCode(built.Err))
		cg.Error = apperrors.UserMessage(built.Err)
	}
	observability.Pipeline().OnAssemble(ctx, built.Topology.String(), len(built.Graph.Nodes), len(built.Graph.Edges), built.Fallback, time.Since(start))
	applyGraph(view, cg)

	if data, err := json.Marshal(cg); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLGraph); err != nil {
			r.Logger.Debug("graph cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		}
	}
}

func applyGraph(view *session.View, cg cachedGraph) {
	view.Graph = cg.Graph
	view.Topology = cg.Topology
	view.Fallback = cg.Fallback
	view.ErrorCode = cg.ErrorCode
	view.Error = cg.Error
	view.Warnings = cg.Warnings
}

// RenderWithCacheInfo generates artifacts with caching and returns whether
// every artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, view *session.View, opts Options) (map[string][]byte, bool, error) {
	if view == nil {
		return nil, false, session.ErrNoView
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "render options")
	}

	graphData, err := graph.MarshalGraph(view.Graph)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !cacheable(format) {
			missing = append(missing, format)
			continue
		}
		key := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	sub := opts
	sub.Formats = missing
	rendered, err := RenderView(ctx, view, sub)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		if !cacheable(format) {
			continue
		}
		key := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	r.Logger.Debug("rendered artifacts", "formats", missing, "duration", time.Since(start))
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, view *session.View, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, view, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
