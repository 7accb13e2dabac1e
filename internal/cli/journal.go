package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Browse the local run journal",
	Long:  `Browse the batches this console started or followed, with their feed lines.`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show a journaled run and its feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalLimit int

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "Number of runs to show")
}

var errNoJournal = errors.New("run journal unavailable (see HELIX_JOURNAL_URL and the data directory)")

func runJournalList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		if a.Journal == nil {
			return errNoJournal
		}
		runs, err := a.Journal.ListRuns(ctx, journalLimit)
		if err != nil {
			return fmt.Errorf("listing journal: %w", err)
		}
		return printResult(cmd.OutOrStdout(), flagOutput, runs, func() *grid { return journalGrid(runs) })
	}, withJournal())
}

func journalGrid(runs []*domain.JournalRun) *grid {
	g := &grid{headers: []string{"Batch", "Source", "Started", "Took", "Status", "Cases", "Pass", "Fail"}}
	for _, r := range runs {
		var finished time.Time
		if r.FinishedAt != nil {
			finished = *r.FinishedAt
		}
		g.add(
			r.BatchID,
			r.Source,
			util.FormatDateTime(r.StartedAt),
			util.FormatElapsed(r.StartedAt, finished),
			string(r.Status),
			strconv.Itoa(r.CaseCount),
			strconv.Itoa(r.PassCount),
			strconv.Itoa(r.FailCount),
		)
	}
	return g
}

// journalView is the structured output of journal show.
type journalView struct {
	Run  *domain.JournalRun `json:"run" yaml:"run"`
	Logs []domain.LogEntry  `json:"logs" yaml:"logs"`
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	batchID := args[0]
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		if a.Journal == nil {
			return errNoJournal
		}
		view, err := loadJournal(ctx, a.Journal, batchID)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagOutput == formatJSON || flagOutput == formatYAML {
			return printResult(w, flagOutput, view, nil)
		}
		r := view.Run
		fmt.Fprintf(w, "Batch %s (%s) %s: %d cases, %d passed, %d failed\n", r.BatchID, r.Source, r.Status, r.CaseCount, r.PassCount, r.FailCount)
		for _, e := range view.Logs {
			fmt.Fprintf(w, "%s %-5s %s\n", e.Clock(), e.Level, e.Message)
		}
		return nil
	}, withJournal())
}

func loadJournal(ctx context.Context, journal ports.RunJournal, batchID string) (*journalView, error) {
	run, err := journal.GetRun(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("loading journal of %s: %w", batchID, err)
	}
	if run == nil {
		return nil, fmt.Errorf("batch %s is not in the journal", batchID)
	}
	logs, err := journal.ListLogs(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("loading feed of %s: %w", batchID, err)
	}
	return &journalView{Run: run, Logs: logs}, nil
}
