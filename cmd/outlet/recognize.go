package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/outlet/pkg/router"
)

func recognizeCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recognize <url>...",
		Short: "Resolve URLs into route instructions",
		Long: `Recognize each URL against the route tree and print the matched
levels with their params. Redirects are followed.

Examples:
  outlet recognize /users/7/posts/1
  outlet recognize --json /a /b?tab=2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := flags.headless(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			for _, url := range args {
				instr, err := r.Recognizer().Recognize(url)
				if err != nil {
					return err
				}
				if asJSON {
					if err := json.NewEncoder(w).Encode(describe(instr)); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(w, "%s => %s\n  %s\n", url, instr.URL(), instr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per URL")
	return cmd
}

type levelView struct {
	Name      string        `json:"name,omitempty"`
	Component string        `json:"component"`
	Params    router.Params `json:"params,omitempty"`
}

type instructionView struct {
	URL    string      `json:"url"`
	Levels []levelView `json:"levels"`
}

func describe(instr *router.Instruction) instructionView {
	v := instructionView{URL: instr.URL()}
	for _, lvl := range instr.Levels() {
		v.Levels = append(v.Levels, levelView{
			Name:      lvl.Name(),
			Component: lvl.Component(),
			Params:    lvl.Params(),
		})
	}
	return v
}
