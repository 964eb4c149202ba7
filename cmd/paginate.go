package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/agentic-research/authq/internal/pagination"
	"github.com/spf13/cobra"
)

type paginateOptions struct {
	url    string
	format string
}

var paginateOpts paginateOptions

func init() {
	paginateCmd.Flags().StringVar(&paginateOpts.url, "url", "", "Request URL carrying page_offset/page_limit")
	paginateCmd.Flags().StringVarP(&paginateOpts.format, "format", "f", "json", "Response format: json or json-api")
	rootCmd.AddCommand(paginateCmd)
}

var paginateCmd = &cobra.Command{
	Use:   "paginate",
	Short: "Paginate a JSON array read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPaginate(cmd.InOrStdin(), cmd.OutOrStdout(), paginateOpts)
	},
}

func runPaginate(r io.Reader, w io.Writer, opts paginateOptions) error {
	format, err := pagination.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	req, err := pagination.RequestFromURL(opts.url)
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return fmt.Errorf("decode results: %w", err)
	}
	return printJSON(w, pagination.Build(req, items, format))
}
