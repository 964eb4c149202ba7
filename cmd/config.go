package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/agentic-research/authq/internal/authority"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

var configSelect string

func init() {
	configCmd.Flags().StringVar(&configSelect, "select", "", "JSONPath applied to the merged definition, e.g. $.search.results")
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
}

var configCmd = &cobra.Command{
	Use:   "config <authority>",
	Short: "Print an authority's merged and validated configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfig(cmd.Context(), cmd.OutOrStdout(), newLoader(), args[0], configSelect)
	},
}

func runConfig(ctx context.Context, w io.Writer, loader *authority.Loader, name, selector string) error {
	def, err := loader.Definition(ctx, name)
	if err != nil {
		return err
	}
	if _, err := authority.New(name, def); err != nil {
		return err
	}
	if selector == "" {
		return printJSON(w, def)
	}

	x, err := jp.ParseString(selector)
	if err != nil {
		return fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	data, err := json.Marshal(def)
	if err != nil {
		return err
	}
	root, err := oj.Parse(data)
	if err != nil {
		return err
	}
	matches := x.Get(root)
	if matches == nil {
		matches = []any{}
	}
	return printJSON(w, matches)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured authorities and their operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSet(cmd.Context())
		if err != nil {
			return err
		}
		return runList(cmd.OutOrStdout(), set)
	},
}

type authoritySummary struct {
	Name           string   `json:"name"`
	Operations     []string `json:"operations"`
	Subauthorities []string `json:"subauthorities,omitempty"`
}

func runList(w io.Writer, set *authority.Set) error {
	out := make([]authoritySummary, 0, set.Len())
	for _, name := range set.Names() {
		cfg, err := set.Get(name)
		if err != nil {
			return err
		}
		s := authoritySummary{Name: name, Operations: []string{}}
		for _, k := range []authority.Kind{authority.Search, authority.Term} {
			op, err := cfg.Operation(k)
			if err != nil {
				continue
			}
			s.Operations = append(s.Operations, k.String())
			for sub := range op.Subauthorities() {
				if !slices.Contains(s.Subauthorities, sub) {
					s.Subauthorities = append(s.Subauthorities, sub)
				}
			}
		}
		slices.Sort(s.Subauthorities)
		out = append(out, s)
	}
	return printJSON(w, out)
}
