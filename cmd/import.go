package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/spf13/cobra"
)

type importOptions struct {
	db   string
	name string
}

var importOpts importOptions

func init() {
	importCmd.Flags().StringVar(&importOpts.db, "db", "", "Graph database (defaults to graph_db from settings)")
	importCmd.Flags().StringVar(&importOpts.name, "name", "", "Graph name (defaults to the file name without extension)")
	rootCmd.AddCommand(importCmd)

	graphsCmd.Flags().StringVar(&graphsOpts.db, "db", "", "Graph database (defaults to graph_db from settings)")
	graphsCmd.Flags().StringVar(&graphsOpts.delete, "delete", "", "Delete the named graph")
	rootCmd.AddCommand(graphsCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.nt>",
	Short: "Store an N-Triples graph in the graph database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), cmd.OutOrStdout(), args[0], importOpts)
	},
}

func runImport(ctx context.Context, w io.Writer, path string, opts importOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	g, err := graph.ReadNTriples(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	name := opts.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	store, err := openStore(opts.db)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Save(ctx, name, g); err != nil {
		return err
	}
	return printJSON(w, map[string]any{"name": name, "statements": g.Len()})
}

type graphsOptions struct {
	db     string
	delete string
}

var graphsOpts graphsOptions

var graphsCmd = &cobra.Command{
	Use:   "graphs",
	Short: "List or delete stored graphs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraphs(cmd.Context(), cmd.OutOrStdout(), graphsOpts)
	},
}

func runGraphs(ctx context.Context, w io.Writer, opts graphsOptions) error {
	store, err := openStore(opts.db)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if opts.delete != "" {
		if err := store.Delete(ctx, opts.delete); err != nil {
			return err
		}
	}
	names, err := store.Names(ctx)
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	return printJSON(w, names)
}

func openStore(db string) (*graph.SQLiteStore, error) {
	if db == "" {
		db = site.GraphDB
	}
	return graph.OpenSQLiteStore(db)
}
