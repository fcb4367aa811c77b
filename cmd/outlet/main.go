package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/outlet/internal/config"
	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/internal/routesrc"
	"github.com/vango-dev/outlet/pkg/router"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dir      string
	routes   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "outlet",
		Short: "Inspect and serve component route trees",
		Long: `Outlet loads a route config tree and lets you inspect it from the
command line or serve it over HTTP.

  • List routes and their names
  • Recognize URLs into instructions
  • Generate URLs from route names
  • Serve the tree with history sync and metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.dir, "config", "c", ".", "Directory containing outlet.json")
	pf.StringVarP(&flags.routes, "routes", "r", "", "Routes source, overrides outlet.json (file or s3://bucket/key)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		routesCmd(flags),
		recognizeCmd(flags),
		generateCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// load reads the config and applies flag overrides.
func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(f.dir)
	if err != nil {
		return nil, err
	}
	if f.routes != "" {
		cfg.Routes = f.routes
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadRoutes loads the configured route source.
func loadRoutes(ctx context.Context, cfg *config.Config) ([]*router.RouteConfig, error) {
	return routesrc.Load(ctx, cfg.RoutesSource(), routesrc.WithS3Options(routesrc.S3Options{
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
	}))
}

// headless builds a configured root router without components.
func (f *globalFlags) headless(cmd *cobra.Command) (*router.Router, *config.Config, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	routes, err := loadRoutes(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := append(cfg.RouterOptions(), router.WithLogger(newLogger(cmd.ErrOrStderr(), cfg.Level())))
	r := router.New(opts...)
	if err := r.Configure(routes); err != nil {
		return nil, nil, err
	}
	return r, cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
