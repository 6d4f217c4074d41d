package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Jaiwincr7/rag-based-model/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question endpoint over HTTP",
		Long: `Serve exposes the router over HTTP:

  POST /askmitre   {"query": "..."} -> {"answer": "...", "intent": "...", "outcome": "..."}
  GET  /health     component health
  GET  /metrics    Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("address") {
				c.cfg.Server.Address = address
			}
			return c.runServe(cmd)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address (default: server.address)")
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, c.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	solver, closeSolver, err := a.newSolver(ctx)
	if err != nil {
		return err
	}
	defer closeSolver()

	if n, err := a.search.Count(ctx); err == nil && n == 0 {
		a.logger.Warn("similarity index is empty; run 'mitrerag ingest' first")
	}

	srv := server.New(c.cfg.Server, solver, a.logger,
		server.WithHealthMonitor(a.health),
		server.WithMetricsHandler(a.metrics.Handler()))
	return srv.Run(ctx)
}
