package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/agentic-research/authq/internal/authority"
	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/ldpath"
	"github.com/agentic-research/authq/internal/mapper"
	"github.com/agentic-research/authq/internal/results"
	"github.com/agentic-research/authq/internal/settings"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var (
	settingsPath   string
	authoritiesDir string

	// site holds the settings resolved for the running command.
	site = settings.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", settings.DefaultFile, "Path to site settings (HCL)")
	rootCmd.PersistentFlags().StringVarP(&authoritiesDir, "authorities", "a", "", "Authority configuration directory (overrides settings)")
}

var rootCmd = &cobra.Command{
	Use:           "authq",
	Short:         "authq: query linked-data authorities and normalize their results",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(settingsPath, cmd.Flags().Changed("settings"))
		if err != nil {
			return err
		}
		if authoritiesDir != "" {
			s.AuthoritiesDir = authoritiesDir
		}
		site = s
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLoader() *authority.Loader {
	return authority.NewLoader(osfs.New(site.AuthoritiesDir), ".")
}

func loadSet(ctx context.Context) (*authority.Set, error) {
	set, err := newLoader().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load authorities from %s: %w", site.AuthoritiesDir, err)
	}
	return set, nil
}

func newAssembler() (*results.Assembler, error) {
	cache, err := ldpath.NewCache(site.CacheSize)
	if err != nil {
		return nil, err
	}
	return results.NewAssembler(mapper.New(cache)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// graphSource selects where a fetched graph is read from: an N-Triples file
// or a named graph in the SQLite store.
type graphSource struct {
	file string
	db   string
	name string
}

func (s *graphSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "graph", "g", "", "N-Triples file holding the fetched graph")
	cmd.Flags().StringVar(&s.db, "db", "", "Graph database (defaults to graph_db from settings)")
	cmd.Flags().StringVar(&s.name, "name", "", "Name of the stored graph to read from --db")
}

func (s graphSource) load(ctx context.Context) (graph.Graph, error) {
	switch {
	case s.file != "" && s.name != "":
		return nil, fmt.Errorf("--graph and --name are mutually exclusive")
	case s.file != "":
		f, err := os.Open(s.file)
		if err != nil {
			return nil, fmt.Errorf("open graph: %w", err)
		}
		defer func() { _ = f.Close() }()
		g, err := graph.ReadNTriples(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.file, err)
		}
		return g, nil
	case s.name != "":
		db := s.db
		if db == "" {
			db = site.GraphDB
		}
		store, err := graph.OpenSQLiteStore(db)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		return store.Load(ctx, s.name)
	default:
		return nil, fmt.Errorf("one of --graph or --name is required")
	}
}
