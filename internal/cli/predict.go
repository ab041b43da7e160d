package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/pipeline"
	"github.com/imartinezt/logistica-front/pkg/prediction"
	"github.com/imartinezt/logistica-front/pkg/render/terminal"
	"github.com/imartinezt/logistica-front/pkg/session"
)

// predictOpts holds the flags of the predict command.
type predictOpts struct {
	req       prediction.Request
	asJSON    bool
	saveRaw   string
	saveGraph string
	browse    bool
	noCache   bool
}

// recordingPredictor keeps the last raw response so it can be saved.
type recordingPredictor struct {
	pipeline.Predictor
	raw []byte
}

func (p *recordingPredictor) Predict(ctx context.Context, req prediction.Request) ([]byte, error) {
	raw, err := p.Predictor.Predict(ctx, req)
	p.raw = raw
	return raw, err
}

// predictCommand creates the predict command.
func (c *CLI) predictCommand() *cobra.Command {
	var opts predictOpts

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Request a delivery prediction and show its decision view",
		Long: `Predict sends a postal code, SKU and quantity to the prediction service
and prints the decision view: delivery metrics, insights, stores, external
factors and the route graph.

Flags not given fall back to the [defaults] section of the config file.`,
		Example: `  logistica predict --cp 05050 --sku LIV-004 --qty 3
  logistica predict --cp 06600 --sku LIV-004 --save-raw result.json
  logistica predict --json | jq .topology`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyRequestDefaults(cmd, &opts.req)
			return c.runPredict(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.req.PostalCode, "cp", "", "destination postal code (5 digits)")
	cmd.Flags().StringVar(&opts.req.ProductID, "sku", "", "product SKU")
	cmd.Flags().IntVar(&opts.req.Quantity, "qty", 0, "quantity to order")
	cmd.Flags().StringVar(&opts.req.PurchasedAt, "fecha", "", "purchase timestamp, YYYY-MM-DDTHH:MM:SS (default now)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the view as JSON")
	cmd.Flags().StringVar(&opts.saveRaw, "save-raw", "", "write the raw service response to this file")
	cmd.Flags().StringVar(&opts.saveGraph, "save-graph", "", "write the decision graph JSON to this file")
	cmd.Flags().BoolVar(&opts.browse, "browse", false, "open the view in the interactive browser")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// applyRequestDefaults fills request fields whose flags were not set from
// the configured defaults.
func (c *CLI) applyRequestDefaults(cmd *cobra.Command, req *prediction.Request) {
	d := c.Config.Defaults
	if !cmd.Flags().Changed("cp") {
		req.PostalCode = d.PostalCode
	}
	if !cmd.Flags().Changed("sku") {
		req.ProductID = d.ProductID
	}
	if !cmd.Flags().Changed("qty") {
		req.Quantity = d.Quantity
	}
}

func (c *CLI) runPredict(ctx context.Context, opts *predictOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	client := c.newClient()
	c.Logger.Debug("requesting prediction", "url", client.URL(), "cp", opts.req.PostalCode, "sku", opts.req.ProductID, "qty", opts.req.Quantity)

	rec := &recordingPredictor{Predictor: client}
	view, err := c.predictWithSpinner(ctx, runner, rec, opts)
	if err != nil {
		return err
	}

	if opts.saveRaw != "" && rec.raw != nil {
		if err := os.WriteFile(opts.saveRaw, rec.raw, 0644); err != nil {
			return fmt.Errorf("save raw response: %w", err)
		}
		c.Logger.Debug("saved raw response", "path", opts.saveRaw, "bytes", len(rec.raw))
	}
	if opts.saveGraph != "" {
		if err := graph.WriteGraphFile(view.Graph, opts.saveGraph); err != nil {
			return fmt.Errorf("save graph: %w", err)
		}
	}

	if opts.asJSON {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.out, string(data))
		return err
	}
	if opts.browse {
		return runBrowser(ctx, view)
	}

	fmt.Fprint(c.out, terminal.Panel(view))
	for _, w := range view.Warnings {
		printDetail("%s", w)
	}
	fmt.Fprintln(c.out)
	if opts.saveRaw != "" {
		printNextStep("Render the graph", "logistica render "+opts.saveRaw)
	}
	return nil
}

// predictWithSpinner runs the prediction behind a spinner. JSON output gets
// no spinner so stdout stays machine-readable.
func (c *CLI) predictWithSpinner(ctx context.Context, runner *pipeline.Runner, p pipeline.Predictor, opts *predictOpts) (*session.View, error) {
	if opts.asJSON {
		return runner.Predict(ctx, p, opts.req)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Consultando predicción para CP %s...", opts.req.PostalCode))
	spinner.Start()
	view, err := runner.Predict(ctx, p, opts.req)
	if err != nil {
		spinner.Stop()
		if spinner.Cancelled() {
			return nil, ctx.Err()
		}
		return nil, err
	}
	spinner.StopWithSuccess("Predicción recibida")
	return view, nil
}
