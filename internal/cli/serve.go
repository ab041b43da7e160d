package cli

import (
	"github.com/spf13/cobra"

	"github.com/imartinezt/logistica-front/pkg/server"
	"github.com/imartinezt/logistica-front/pkg/session"
)

// serveCommand creates the serve command running the dashboard API.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Long: `Serve exposes the decision view over HTTP. POST /api/v1/predict calls the
prediction service, POST /api/v1/views accepts a raw result, and
GET /api/v1/view/graph.{svg,png,dot} draws the current view.

The server keeps a single current view in memory; each prediction replaces it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("listen") {
				listen = c.Config.Server.Listen
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			client := c.newClient()
			c.Logger.Info("prediction service", "url", client.URL())

			srv := server.New(runner, client, &session.Holder{}, c.Logger)
			return srv.ListenAndServe(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
