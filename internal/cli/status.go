package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/health"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend and show what is running",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the structured output of status.
type statusReport struct {
	APIURL    string               `json:"api_url" yaml:"api_url"`
	Connected bool                 `json:"connected" yaml:"connected"`
	Error     string               `json:"error,omitempty" yaml:"error,omitempty"`
	Active    []domain.ActiveBatch `json:"active,omitempty" yaml:"active,omitempty"`
	Workers   int                  `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	DataDir   string               `json:"data_dir" yaml:"data_dir"`
	Journal   bool                 `json:"journal" yaml:"journal"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		poller := health.NewPoller(a.API, a.Config.Timeout, a.Logger)
		rep := collectStatus(ctx, poller, a.API)
		rep.APIURL = a.Config.APIURL
		rep.DataDir = a.DataDir
		rep.Journal = a.Journal != nil
		return printResult(cmd.OutOrStdout(), flagOutput, rep, func() *grid { return statusGrid(rep) })
	}, withJournal())
}

type checker interface {
	Check(ctx context.Context) health.Status
}

// collectStatus checks the backend and, when it answers, asks what runs.
func collectStatus(ctx context.Context, p checker, api ports.HelixAPI) statusReport {
	st := p.Check(ctx)
	rep := statusReport{Connected: st.Connected, Error: st.LastError}
	if !st.Connected {
		return rep
	}
	if active, err := api.ActiveBatches(ctx); err == nil {
		rep.Active = active
	}
	if cfg, err := api.GetConfig(ctx); err == nil {
		rep.Workers = cfg.MaxWorkers
	}
	return rep
}

func statusGrid(rep statusReport) *grid {
	g := &grid{headers: []string{"Check", "Value"}}
	backend := "connected"
	if !rep.Connected {
		backend = "unreachable: " + orDash(rep.Error)
	}
	g.add("backend", rep.APIURL+" ("+backend+")")
	if rep.Connected {
		g.add("max workers", strconv.Itoa(rep.Workers))
		g.add("active batches", strconv.Itoa(len(rep.Active)))
		for _, b := range rep.Active {
			g.add("  "+b.BatchID, strconv.Itoa(b.Progress())+"% ("+strconv.Itoa(b.CompletedCount)+"/"+strconv.Itoa(b.TotalCount)+")")
		}
	}
	g.add("data dir", rep.DataDir)
	g.add("journal", yesNo(rep.Journal))
	return g
}
