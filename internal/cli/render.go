package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/pipeline"
	"github.com/imartinezt/logistica-front/pkg/prediction"
	"github.com/imartinezt/logistica-front/pkg/session"
)

// stdinArg reads the prediction result from standard input.
const stdinArg = "-"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file (single format) or base path
	schema  string // schema hint; empty detects it
	noCache bool
	quiet   bool
	graph   bool // input is a decision graph document, not a raw result
	pipeline.Options
}

// renderCommand creates the render command for drawing decision graphs
// from saved prediction results.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{Options: pipeline.Options{Scale: pipeline.DefaultScale}}

	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Render the decision graph of a saved prediction result",
		Long: `Render reads a raw prediction result (as saved by "predict --save-raw" or
returned by the service) and writes its decision graph.

Results that cannot be normalized still render: the graph falls back to the
three-node product, carrier and customer chain and a warning names the reason.

With --graph the input is a decision graph as written by "predict --save-graph";
it is drawn as is, without normalization or caching.`,
		Example: `  logistica render result.json
  logistica render result.json -f svg,png --legend -o route
  cat result.json | logistica render - -f dot -o route.dot
  logistica render --graph graph.json -f png --scale 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = pipeline.ParseFormats(formatsStr)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if args[0] == stdinArg && opts.output == "" {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "--output is required when reading from stdin")
			}
			return c.runRender(cmd.Context(), args[0], cmd.InOrStdin(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "result schema: nested, nested-hub, flat, multi-option (default detect)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show costs, distances and times on the graph")
	cmd.Flags().BoolVar(&opts.Vertical, "vertical", false, "lay the graph out top to bottom")
	cmd.Flags().BoolVar(&opts.Legend, "legend", false, "include the category legend")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only print written file names")
	cmd.Flags().BoolVar(&opts.graph, "graph", false, "input is a saved decision graph")

	return cmd
}

// parseSchema maps the --schema flag to a schema version. Empty means
// detect.
func parseSchema(s string) (prediction.SchemaVersion, error) {
	if s == "" {
		return prediction.SchemaUnknown, nil
	}
	v := prediction.ParseSchemaVersion(s)
	if v == prediction.SchemaUnknown {
		return v, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown schema %q (must be nested, nested-hub, flat or multi-option)", s)
	}
	return v, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .dot, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to the file it is written to. A single
// format honors an explicit output name as is. JSON is written to
// "<base>.<jsonKind>.json" so it never replaces an input file of the same
// base.
func outputPaths(formats []string, output, input, jsonKind string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	if input == stdinArg && output == "" {
		base = "prediction"
	}
	for _, f := range formats {
		if f == pipeline.FormatJSON {
			paths[f] = base + "." + jsonKind + ".json"
			continue
		}
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, input string, stdin io.Reader, opts *renderOpts) error {
	if opts.graph {
		return c.runRenderGraph(ctx, input, stdin, opts)
	}

	hint, err := parseSchema(opts.schema)
	if err != nil {
		return err
	}

	raw, err := readInput(input, stdin)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	view := runner.BuildView(ctx, raw, hint)
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, view, opts.Options)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d artifact(s)", len(artifacts)))

	written, err := writeArtifacts(artifacts, outputPaths(opts.Formats, opts.output, input, "view"))
	if err != nil {
		return err
	}
	if opts.quiet {
		c.printWritten(written)
		return nil
	}
	c.printRenderSummary(view, cached, input, written)
	return nil
}

// runRenderGraph draws a saved decision graph.
func (c *CLI) runRenderGraph(ctx context.Context, input string, stdin io.Reader, opts *renderOpts) error {
	var g graph.Graph
	var err error
	if input == stdinArg {
		g, err = graph.ReadGraph(stdin)
	} else {
		g, err = graph.ReadGraphFile(input)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "read graph %s", input)
	}

	prog := newProgress(c.Logger)
	artifacts, err := pipeline.RenderGraph(ctx, g, opts.Options)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d artifact(s)", len(artifacts)))

	written, err := writeArtifacts(artifacts, outputPaths(opts.Formats, opts.output, input, "graph"))
	if err != nil {
		return err
	}
	if opts.quiet {
		c.printWritten(written)
		return nil
	}
	printSuccess("Rendered graph with %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	fmt.Println()
	for _, p := range written {
		printFile(p)
	}
	return nil
}

func (c *CLI) printWritten(paths []string) {
	for _, p := range paths {
		fmt.Fprintln(c.out, p)
	}
}

// writeArtifacts writes each artifact to its path and returns the written
// paths, sorted.
func writeArtifacts(artifacts map[string][]byte, paths map[string]string) ([]string, error) {
	written := make([]string, 0, len(paths))
	for format, path := range paths {
		if err := writeArtifact(path, artifacts[format]); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	sort.Strings(written)
	return written, nil
}

func (c *CLI) printRenderSummary(view *session.View, cached bool, input string, written []string) {
	if view.Degraded() {
		printWarning("Rendered the fallback graph")
	} else {
		printSuccess("Rendered decision graph")
	}
	fmt.Println(viewStats(view, cached))
	printViewWarnings(view)
	fmt.Println()
	for _, p := range written {
		printFile(p)
	}
	if !view.Degraded() && input != stdinArg {
		fmt.Println()
		printNextStep("Explore interactively", "logistica browse "+input)
	}
}

// readInput reads the raw result from a file, or from stdin for "-".
func readInput(input string, stdin io.Reader) ([]byte, error) {
	if input == stdinArg {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeNotFound, err, "result file %s", input)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read %s", input)
	}
	return data, nil
}

// writeArtifact writes data to path, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
