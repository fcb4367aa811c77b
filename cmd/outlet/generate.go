package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/link"
	"github.com/vango-dev/outlet/pkg/router"
)

func generateCmd(flags *globalFlags) *cobra.Command {
	var href bool

	cmd := &cobra.Command{
		Use:   "generate <route> [param=value...] [<route> [param=value...]]...",
		Short: "Generate a URL from route names",
		Long: `Generate the canonical URL for a link target. Each route name is
followed by the params for the levels it adds. A leading / resolves from
the root; names are also found in nested route sets.

Examples:
  outlet generate /User id=7
  outlet generate /User id=7 Post post=1
  outlet generate --href /Search q=go`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := targetExpr(args)
			if err != nil {
				return err
			}
			target, err := link.ParseTarget(expr)
			if err != nil {
				return errors.New("R300").WithDetail(strings.Join(args, " ")).Wrap(err)
			}

			r, cfg, err := flags.headless(cmd)
			if err != nil {
				return err
			}
			st := link.Compute(r, target, cfg.Link.Prefix)
			if st.Err != nil {
				return st.Err
			}
			if href {
				fmt.Fprintln(cmd.OutOrStdout(), st.Href)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), st.Instruction.URL())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&href, "href", false, "Print the link href (prefix + URL) instead of the URL")
	return cmd
}

// targetExpr turns "Name k=v k=v Name k=v" arguments into a link target
// expression.
func targetExpr(args []string) ([]any, error) {
	var expr []any
	var params router.Params
	for _, arg := range args {
		k, v, isParam := strings.Cut(arg, "=")
		if !isParam {
			expr = append(expr, arg)
			params = nil
			continue
		}
		if len(expr) == 0 || k == "" {
			return nil, errors.New("R300").WithDetailf("unexpected %q", arg)
		}
		if params == nil {
			params = router.Params{}
			expr = append(expr, params)
		}
		params[k] = v
	}
	return expr, nil
}
