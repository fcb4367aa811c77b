package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/outlet/internal/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route tree over HTTP",
		Long: `Start an HTTP server hosting one router tree.

Every page request navigates the tree and renders it. Browsers connected
to the history socket are kept on the active URL. Prometheus metrics are
exposed unless disabled in outlet.json.

Examples:
  outlet serve
  outlet serve --addr :8080 --routes s3://config/routes.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			routes, err := loadRoutes(ctx, cfg)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Level())
			srv, err := server.New(cfg, routes, server.WithLogger(logger))
			if err != nil {
				return err
			}

			success(cmd.OutOrStdout(), "Serving %d routes from %s on %s", len(srv.Root().Recognizer().Names()), cfg.RoutesSource(), cfg.Server.Addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from outlet.json)")
	return cmd
}
