package cmd

import (
	"context"
	"io"

	"github.com/agentic-research/authq/internal/authority"
	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/mapper"
	"github.com/agentic-research/authq/internal/results"
	"github.com/spf13/cobra"
)

type termOptions struct {
	source         graphSource
	lang           string
	acceptLanguage string
}

var termOpts termOptions

func init() {
	termOpts.source.bind(termCmd)
	termCmd.Flags().StringVar(&termOpts.lang, "lang", "", "Requested languages, comma separated")
	termCmd.Flags().StringVar(&termOpts.acceptLanguage, "accept-language", "", "Accept-Language header value")
	rootCmd.AddCommand(termCmd)
}

var termCmd = &cobra.Command{
	Use:   "term <authority> <id>",
	Short: "Normalize a fetched term graph",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSet(cmd.Context())
		if err != nil {
			return err
		}
		return runTerm(cmd.Context(), cmd.OutOrStdout(), set, args[0], args[1], termOpts)
	},
}

func runTerm(ctx context.Context, w io.Writer, set *authority.Set, name, id string, opts termOptions) error {
	cfg, err := set.Get(name)
	if err != nil {
		return err
	}
	op, err := cfg.Operation(authority.Term)
	if err != nil {
		return err
	}
	g, err := opts.source.load(ctx)
	if err != nil {
		return err
	}
	asm, err := newAssembler()
	if err != nil {
		return err
	}

	fields := op.FieldSources()
	subject, err := asm.FindTermSubject(g, id, fields[mapper.FieldID], op.TermByURI())
	if err != nil {
		return err
	}
	langs := results.ResolveLanguage(opts.lang, opts.acceptLanguage, op.Language(), site.DefaultLanguage)
	term, err := asm.AssembleTerm(graph.FilterLanguage(g, langs), subject, results.TermSpec{
		Fields:    fields,
		Languages: langs,
	})
	if err != nil {
		return err
	}
	return printJSON(w, term)
}
