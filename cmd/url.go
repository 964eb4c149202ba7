package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/authq/internal/authority"
	"github.com/agentic-research/authq/internal/iri"
	"github.com/spf13/cobra"
)

type urlOptions struct {
	subauth string
	params  []string
	escape  string
}

var urlOpts urlOptions

func init() {
	urlCmd.Flags().StringVarP(&urlOpts.subauth, "subauth", "s", "", "Subauthority name")
	urlCmd.Flags().StringArrayVarP(&urlOpts.params, "param", "p", nil, "Replacement or template value as key=value (repeatable)")
	urlCmd.Flags().StringVar(&urlOpts.escape, "escape", "none", "Escape policy: none, configured or all")
	rootCmd.AddCommand(urlCmd)
}

var urlCmd = &cobra.Command{
	Use:   "url <authority> <search|term> <query-or-id>",
	Short: "Build the upstream request URL for an authority operation",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSet(cmd.Context())
		if err != nil {
			return err
		}
		return runURL(cmd.OutOrStdout(), set, args[0], args[1], args[2], urlOpts)
	},
}

func runURL(w io.Writer, set *authority.Set, name, operation, value string, opts urlOptions) error {
	kind, err := authority.ParseKind(operation)
	if err != nil {
		return err
	}
	policy, err := iri.ParseEscapePolicy(opts.escape)
	if err != nil {
		return err
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	cfg, err := set.Get(name)
	if err != nil {
		return err
	}
	op, err := cfg.Operation(kind)
	if err != nil {
		return err
	}
	if opts.subauth != "" && !op.ValidSubauthority(opts.subauth) {
		return fmt.Errorf("authority %s: unknown subauthority %q", cfg.Name(), opts.subauth)
	}
	u, err := op.URL(authority.URLRequest{
		Value:        value,
		Subauthority: opts.subauth,
		Params:       params,
		Escape:       policy,
	})
	if err != nil {
		return err
	}
	return printJSON(w, map[string]string{"url": u})
}

func parseParams(kvs []string) (map[string]string, error) {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}
