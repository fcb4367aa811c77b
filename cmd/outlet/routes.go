package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/internal/routesrc"
	"github.com/vango-dev/outlet/pkg/router"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Validate and print the route tree",
		Long: `Load the route source, validate it, and print it.

Formats:
  tree  indented table of patterns, names and components (default)
  json  wrapped JSON document
  yaml  wrapped YAML document

Examples:
  outlet routes
  outlet routes --routes routes.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := flags.headless(cmd)
			if err != nil {
				return err
			}
			configs := r.Recognizer().Configs()
			w := cmd.OutOrStdout()

			switch format {
			case "tree":
				return printTree(w, configs)
			case "json":
				return routesrc.Encode(w, configs, routesrc.FormatJSON)
			case "yaml":
				return routesrc.Encode(w, configs, routesrc.FormatYAML)
			}
			return errors.New("R300").WithDetailf("unknown format %q", format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tree", "Output format: tree, json, yaml")
	return cmd
}

func printTree(w io.Writer, configs []*router.RouteConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tNAME\tTARGET")

	var walk func(list []*router.RouteConfig, depth int)
	walk = func(list []*router.RouteConfig, depth int) {
		for _, cfg := range list {
			path := cfg.Path
			if path == "" {
				path = "/"
			}
			target := cfg.Component
			if cfg.RedirectTo != "" {
				target = "-> " + cfg.RedirectTo
			}
			if cfg.Guard != "" {
				target += " [" + cfg.Guard + "]"
			}
			name := cfg.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\n", strings.Repeat("  ", depth), path, name, target)
			walk(cfg.Children, depth+1)
		}
	}
	walk(configs, 0)
	return tw.Flush()
}
