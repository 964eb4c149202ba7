package cmd

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentic-research/authq/internal/authority"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload authorities whenever their files change, printing one JSON line per reload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := authority.NewRegistry(newLoader())
		w := cmd.OutOrStdout()
		report := reloadReporter(w)
		err := reg.Reload(ctx)
		report(reg.Current(), err)
		return authority.Watch(ctx, reg, site.AuthoritiesDir, site.Debounce(), report)
	},
}

type reloadEvent struct {
	Time        time.Time `json:"time"`
	Authorities []string  `json:"authorities"`
	Error       string    `json:"error,omitempty"`
}

func reloadReporter(w io.Writer) func(*authority.Set, error) {
	enc := json.NewEncoder(w)
	return func(s *authority.Set, err error) {
		ev := reloadEvent{Time: time.Now().UTC(), Authorities: s.Names()}
		if ev.Authorities == nil {
			ev.Authorities = []string{}
		}
		if err != nil {
			ev.Error = err.Error()
		}
		_ = enc.Encode(ev)
	}
}
