package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/intellicrawl/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and, when a primary store is configured, the
background reconciler.

Endpoints:
  POST   /api/search           search GitHub profiles
  POST   /api/agent-workflow   run the AI assistant on a profile
  GET    /api/developers       list saved candidates
  POST   /api/developers       save a candidate
  DELETE /api/developers/{id}  delete a candidate
  GET    /healthz              component status
  GET    /metrics              Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			// Flags beat config, but only when given.
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx := cmd.Context()
			app, err := server.NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			srv, err := server.New(app, Version)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host to bind to (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}
