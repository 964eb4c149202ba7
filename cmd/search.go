package cmd

import (
	"context"
	"io"

	"github.com/agentic-research/authq/internal/authority"
	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/pagination"
	"github.com/agentic-research/authq/internal/results"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	source         graphSource
	lang           string
	acceptLanguage string
	context        bool
	pageURL        string
	format         string
}

var searchOpts searchOptions

func init() {
	searchOpts.source.bind(searchCmd)
	searchCmd.Flags().StringVar(&searchOpts.lang, "lang", "", "Requested languages, comma separated")
	searchCmd.Flags().StringVar(&searchOpts.acceptLanguage, "accept-language", "", "Accept-Language header value")
	searchCmd.Flags().BoolVar(&searchOpts.context, "context", false, "Attach the configured context to each result")
	searchCmd.Flags().StringVar(&searchOpts.pageURL, "page-url", "", "Request URL carrying page_offset/page_limit")
	searchCmd.Flags().StringVarP(&searchOpts.format, "format", "f", "json", "Response format: json or json-api")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <authority>",
	Short: "Normalize a fetched search graph into results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSet(cmd.Context())
		if err != nil {
			return err
		}
		return runSearch(cmd.Context(), cmd.OutOrStdout(), set, args[0], searchOpts)
	},
}

func runSearch(ctx context.Context, w io.Writer, set *authority.Set, name string, opts searchOptions) error {
	format, err := pagination.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	cfg, err := set.Get(name)
	if err != nil {
		return err
	}
	op, err := cfg.Operation(authority.Search)
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

	langs := results.ResolveLanguage(opts.lang, opts.acceptLanguage, op.Language(), site.DefaultLanguage)
	spec := results.SearchSpec{
		Fields:    op.FieldSources(),
		SortField: op.SortField(),
		Languages: langs,
	}
	if opts.context {
		spec.Context = op.Context()
	}
	records, err := asm.Assemble(graph.FilterLanguage(g, langs), spec)
	if err != nil {
		return err
	}
	out := results.FormatSearch(records, langs)

	req := pagination.Request{}
	if opts.pageURL != "" {
		if req, err = pagination.RequestFromURL(opts.pageURL); err != nil {
			return err
		}
	}
	return printJSON(w, pagination.Build(req, out, format))
}
