package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/app/tui"
	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
	"github.com/emiliopalmerini/helix-console/internal/runner"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start, follow and stop batches",
	Long:  `Start test batches on the backend and follow their live log feed.`,
}

var runStartCmd = &cobra.Command{
	Use:   "start [id...]",
	Short: "Start a batch",
	Long: `Start a batch and follow it until it ends.

Without ids, the cases matching the filters run; with no filters either,
every active case runs.

Examples:
  helix run start 12 14 15
  helix run start --module sales --priority P0
  helix run start --pick --tui
  helix run start --detach`,
	RunE: runRunStart,
}

var runStopCmd = &cobra.Command{
	Use:   "stop [batch-id]",
	Short: "Stop a running batch",
	Long:  `Stop a batch. Without an id, the most recent active batch is stopped.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRunStop,
}

var runActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "List batches the backend is running",
	Args:  cobra.NoArgs,
	RunE:  runRunActive,
}

var runWatchCmd = &cobra.Command{
	Use:   "watch [batch-id]",
	Short: "Attach to a running batch",
	Long: `Attach to a running batch and follow its feed. Without an id, the most
recent active batch is followed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRunWatch,
}

var runHistoryCmd = &cobra.Command{
	Use:   "history <batch-id>",
	Short: "Show the verdicts recorded so far for a batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunHistory,
}

// Flags
var (
	runSearch     string
	runModules    []string
	runPriorities []string
	runPick       bool
	runDetach     bool
	runTUI        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.AddCommand(runStartCmd)
	runCmd.AddCommand(runStopCmd)
	runCmd.AddCommand(runActiveCmd)
	runCmd.AddCommand(runWatchCmd)
	runCmd.AddCommand(runHistoryCmd)

	f := runStartCmd.Flags()
	f.StringVarP(&runSearch, "search", "s", "", "Run the active cases matching this text")
	f.StringSliceVarP(&runModules, "module", "m", nil, "Run the active cases of these modules")
	f.StringSliceVarP(&runPriorities, "priority", "p", nil, "Run the active cases with these priorities")
	f.BoolVar(&runPick, "pick", false, "Choose the cases interactively")
	f.BoolVarP(&runDetach, "detach", "d", false, "Return once the batch is started")

	for _, c := range []*cobra.Command{runStartCmd, runWatchCmd} {
		c.Flags().BoolVar(&runTUI, "tui", false, "Follow in the full-screen runner view")
	}
}

func runRunStart(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := NewAppContext(ctx, withJournal())
	if err != nil {
		return err
	}
	defer a.Close()

	filter := caseFilterFromFlags(runSearch, runModules, runPriorities, string(domain.StatusActive))
	sel, err := selectCases(ctx, a.API, a.Config.PageSize, ids, filter, runPick)
	if err != nil {
		return err
	}

	ticket, err := a.Console.Start(ctx, sel.ids, sel.cases)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if runDetach {
		return printMessage(w, flagOutput, ticket, fmt.Sprintf("%s: batch %s", ticket.Message, ticket.BatchID))
	}
	fmt.Fprintf(w, "Batch %s started with %d cases\n", ticket.BatchID, len(a.Store.Snapshot().Cases))
	return follow(ctx, a, ticket.BatchID, w)
}

type selection struct {
	ids   []int
	cases []domain.TestCase
}

// selectCases resolves what a run start executes. Explicit ids win; then
// the picker; then the filter. No ids and no filter leaves the list empty,
// which the backend reads as every active case.
func selectCases(ctx context.Context, api ports.CaseService, limit int, ids []int, filter domain.CaseFilter, pick bool) (selection, error) {
	needList := len(ids) > 0 || pick || !filterIsOnlyActive(filter)
	if !needList {
		return selection{}, nil
	}

	all, err := api.ListCases(ctx, 0, limit)
	if err != nil {
		return selection{}, fmt.Errorf("listing cases: %w", err)
	}
	if len(ids) > 0 {
		return selection{ids: ids, cases: domain.CasesByID(all, ids)}, nil
	}

	displayed := domain.FilterCases(all, filter)
	if pick {
		picked, err := tui.Pick(ctx, displayed)
		if err != nil {
			return selection{}, err
		}
		if len(picked) == 0 {
			return selection{}, domain.ErrEmptySelection
		}
		return selection{ids: picked, cases: domain.CasesByID(all, picked)}, nil
	}

	chosen, err := domain.SelectForRun(nil, displayed)
	if err != nil {
		return selection{}, err
	}
	return selection{ids: chosen, cases: domain.CasesByID(all, chosen)}, nil
}

func filterIsOnlyActive(f domain.CaseFilter) bool {
	return f.Search == "" && len(f.Modules) == 0 && len(f.Priorities) == 0
}

// follow streams the batch to w, or hands the store to the runner view.
func follow(ctx context.Context, a *AppContext, batchID string, w io.Writer) error {
	if runTUI {
		followCtx, cancel := context.WithCancel(ctx)
		a.Console.FollowInBackground(followCtx, batchID)
		err := tui.Run(ctx, a.Store, a.Console.Stop)
		cancel()
		a.Console.Wait()
		return err
	}

	err := followWithFeed(ctx, a.Console, batchID, w)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(w, "\nDetached from %s; the batch keeps running. Stop it with: helix run stop %s\n", batchID, batchID)
		return nil
	}
	if err != nil {
		return err
	}
	state := a.Store.Snapshot()
	if err := writeSummary(w, batchID, state); err != nil {
		return err
	}
	if state.BatchStatus == domain.BatchFailed {
		return fmt.Errorf("batch %s failed", batchID)
	}
	return nil
}

type feedSource interface {
	Store() *runner.Store
	Follow(ctx context.Context, batchID string) error
}

// followWithFeed follows batchID and prints every new feed line to w until
// the batch ends or ctx is done.
func followWithFeed(ctx context.Context, src feedSource, batchID string, w io.Writer) error {
	store := src.Store()
	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()

	errc := make(chan error, 1)
	go func() { errc <- src.Follow(ctx, batchID) }()

	printed := 0
	flush := func() {
		logs := store.Snapshot().Logs
		if len(logs) < printed {
			printed = 0
		}
		for _, e := range logs[printed:] {
			fmt.Fprintf(w, "%s %-5s %s\n", e.Clock(), e.Level, e.Message)
		}
		printed = len(logs)
	}

	flush()
	for {
		select {
		case <-updates:
			flush()
		case err := <-errc:
			flush()
			return err
		}
	}
}

func writeSummary(w io.Writer, batchID string, s runner.State) error {
	pass, fail, pending := s.Counts()
	status := s.BatchStatus
	if status == "" {
		status = domain.BatchCompleted
	}
	_, err := fmt.Fprintf(w, "Batch %s %s: %d passed, %d failed, %d pending\n", batchID, status, pass, fail, pending)
	return err
}

func runRunStop(cmd *cobra.Command, args []string) error {
	var batchID string
	if len(args) == 1 {
		batchID = args[0]
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		id, msg, err := stopBatch(ctx, a.API, batchID)
		if err != nil {
			return err
		}
		res := map[string]string{"batch_id": id, "message": msg}
		return printMessage(cmd.OutOrStdout(), flagOutput, res, fmt.Sprintf("Stop requested for %s: %s", id, msg))
	})
}

// stopBatch stops batchID, or the most recent active batch when empty.
func stopBatch(ctx context.Context, api ports.RunService, batchID string) (string, string, error) {
	if batchID == "" {
		batch, err := latestActive(ctx, api, "")
		if err != nil {
			return "", "", err
		}
		batchID = batch.BatchID
	}
	msg, err := api.StopRun(ctx, batchID)
	if err != nil {
		return "", "", fmt.Errorf("stopping %s: %w", batchID, err)
	}
	return batchID, msg, nil
}

// latestActive returns batchID among the active batches, or the most recent
// one when batchID is empty.
func latestActive(ctx context.Context, api ports.RunService, batchID string) (*domain.ActiveBatch, error) {
	batches, err := api.ActiveBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active batches: %w", err)
	}
	if len(batches) == 0 {
		return nil, runner.ErrNoActiveRun
	}
	if batchID == "" {
		return &batches[0], nil
	}
	for i := range batches {
		if batches[i].BatchID == batchID {
			return &batches[i], nil
		}
	}
	return nil, fmt.Errorf("batch %s is not running", batchID)
}

func runRunActive(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		batches, err := a.API.ActiveBatches(ctx)
		if err != nil {
			return fmt.Errorf("listing active batches: %w", err)
		}
		return printResult(cmd.OutOrStdout(), flagOutput, batches, func() *grid { return activeGrid(batches) })
	})
}

func activeGrid(batches []domain.ActiveBatch) *grid {
	g := &grid{headers: []string{"Batch", "Started", "Done", "Pass", "Progress", "Elapsed"}}
	for _, b := range batches {
		elapsed := "-"
		if b.StartTime != nil {
			elapsed = util.FormatElapsed(b.StartTime.Time, time.Time{})
		}
		g.add(
			b.BatchID,
			formatTS(b.StartTime),
			fmt.Sprintf("%d/%d", b.CompletedCount, b.TotalCount),
			strconv.Itoa(b.PassCount),
			strconv.Itoa(b.Progress())+"%",
			elapsed,
		)
	}
	return g
}

func runRunWatch(cmd *cobra.Command, args []string) error {
	var batchID string
	if len(args) == 1 {
		batchID = args[0]
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := NewAppContext(ctx, withJournal())
	if err != nil {
		return err
	}
	defer a.Close()

	batch, err := latestActive(ctx, a.API, batchID)
	if err != nil {
		return err
	}
	if err := a.Console.Attach(ctx, *batch); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Following %s: %d/%d done\n", batch.BatchID, batch.CompletedCount, batch.TotalCount)
	return follow(ctx, a, batch.BatchID, w)
}

func runRunHistory(cmd *cobra.Command, args []string) error {
	batchID := args[0]
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		results, err := a.API.RunHistory(ctx, batchID)
		if err != nil {
			return fmt.Errorf("loading history of %s: %w", batchID, err)
		}
		return printResult(cmd.OutOrStdout(), flagOutput, results, func() *grid { return historyGrid(results) })
	})
}

func historyGrid(results []domain.RunResult) *grid {
	g := &grid{headers: []string{"Case", "Result", "Time", "Question"}}
	for _, r := range results {
		g.add(strconv.Itoa(r.CaseID), string(r.Result), util.FormatSeconds(r.Duration), truncate(r.Question, 60))
	}
	return g
}
