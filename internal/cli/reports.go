package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/adapters/storage"
	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

var reportsCmd = &cobra.Command{
	Use:     "reports",
	Aliases: []string{"report"},
	Short:   "Browse batch reports",
	Long:    `List finished batches, inspect per-case verdicts and export workbooks.`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List batch reports, newest first",
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show the verdicts of a batch",
	Long: `Show the per-case verdicts of a batch.

Examples:
  helix reports show 20260301-1030
  helix reports show 20260301-1030 --result fail`,
	Args: cobra.ExactArgs(1),
	RunE: runReportsShow,
}

var reportsExportCmd = &cobra.Command{
	Use:   "export <batch-id>",
	Short: "Download the Excel workbook of a batch",
	Long: `Download the Excel workbook of a batch and keep a local copy.

When the backend cannot export, the local copy is written instead.

Examples:
  helix reports export 20260301-1030
  helix reports export 20260301-1030 --out /tmp/run.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runReportsExport,
}

var reportsForgetCmd = &cobra.Command{
	Use:   "forget <batch-id>",
	Short: "Remove the local copy of a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsForget,
}

// Flags
var (
	reportLimit  int
	reportResult string
	reportOut    string
)

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsExportCmd)
	reportsCmd.AddCommand(reportsForgetCmd)

	reportsListCmd.Flags().IntVarP(&reportLimit, "limit", "n", 20, "Number of reports to show")
	reportsShowCmd.Flags().StringVar(&reportResult, "result", "", "Only pass or fail verdicts")
	reportsExportCmd.Flags().StringVar(&reportOut, "out", "", "Output file (default report_<batch>.xlsx)")
}

func runReportsList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		batches, err := a.API.ListReports(ctx, 0, reportLimit)
		if err != nil {
			return fmt.Errorf("listing reports: %w", err)
		}
		archived := archivedSet(ctx, a.Archive, batches)
		return printResult(cmd.OutOrStdout(), flagOutput, batches, func() *grid { return batchGrid(batches, archived) })
	})
}

func archivedSet(ctx context.Context, archive ports.ReportArchive, batches []domain.Batch) map[string]bool {
	out := make(map[string]bool)
	for _, b := range batches {
		if ok, _ := archive.Exists(ctx, b.ID); ok {
			out[b.ID] = true
		}
	}
	return out
}

func batchGrid(batches []domain.Batch, archived map[string]bool) *grid {
	g := &grid{headers: []string{"Batch", "Started", "Status", "Pass", "Fail", "Rate", "Duration", "Local"}}
	for _, b := range batches {
		dur := "-"
		if d := b.Duration(); d > 0 {
			dur = util.FormatSeconds(d.Seconds())
		}
		g.add(
			b.ID,
			formatTS(b.StartTime),
			string(b.Status),
			strconv.Itoa(b.PassCount),
			strconv.Itoa(b.FailCount()),
			util.FormatPercent(b.PassRate()*100),
			dur,
			yesNo(archived[b.ID]),
		)
	}
	return g
}

// reportView is the structured output of reports show.
type reportView struct {
	Batch   domain.Batch       `json:"batch" yaml:"batch"`
	Results []domain.RunResult `json:"results" yaml:"results"`
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	batchID := args[0]
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		view, err := loadReport(ctx, a.API, batchID, reportResult)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagOutput == formatTable || flagOutput == "" {
			b := view.Batch
			fmt.Fprintf(w, "Batch %s  %s  %d/%d passed (%s)\n", b.ID, b.Status, b.PassCount, b.TotalCount, util.FormatPercent(b.PassRate()*100))
		}
		return printResult(w, flagOutput, view, func() *grid { return resultGrid(view.Results) })
	})
}

func loadReport(ctx context.Context, api ports.ReportService, batchID, filter string) (*reportView, error) {
	batch, err := api.GetReport(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", batchID, err)
	}
	if batch == nil {
		return nil, fmt.Errorf("report %s not found", batchID)
	}
	results, err := api.ReportDetails(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("loading results of %s: %w", batchID, err)
	}
	return &reportView{Batch: *batch, Results: domain.FilterResults(results, filter)}, nil
}

func resultGrid(results []domain.RunResult) *grid {
	g := &grid{headers: []string{"Case", "Result", "Time", "Diff", "Question", "Message"}}
	for _, r := range results {
		diff := "-"
		if r.ExpectedSQL != "" {
			diff = strconv.Itoa(domain.ChangedCount(domain.DiffSQL(r.ExpectedSQL, r.ActualSQL)))
		}
		g.add(strconv.Itoa(r.CaseID), string(r.Result), util.FormatSeconds(r.Duration), diff, truncate(r.Question, 40), truncate(orDash(r.Message), 40))
	}
	return g
}

func runReportsExport(cmd *cobra.Command, args []string) error {
	batchID := args[0]
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		data, fromArchive, err := exportReport(ctx, a.API, a.Archive, batchID, a.Logger)
		if err != nil {
			return err
		}
		out := reportOut
		if out == "" {
			out = storage.FileName(batchID)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		msg := fmt.Sprintf("Wrote %s (%d bytes)", out, len(data))
		if fromArchive {
			msg += " from the local copy"
		}
		res := map[string]any{"path": out, "bytes": len(data), "from_archive": fromArchive}
		return printMessage(cmd.OutOrStdout(), flagOutput, res, msg)
	})
}

// exportReport downloads the workbook and archives it. When the backend
// fails, an archived copy is returned instead.
func exportReport(ctx context.Context, api ports.ReportService, archive ports.ReportArchive, batchID string, logger *zap.Logger) ([]byte, bool, error) {
	data, err := api.ExportReport(ctx, batchID)
	if err == nil {
		if _, serr := archive.Store(ctx, batchID, data); serr != nil {
			logger.Warn("failed to archive report", zap.String("batch_id", batchID), zap.Error(serr))
		}
		return data, false, nil
	}
	if cached, aerr := archive.Get(ctx, batchID); aerr == nil && len(cached) > 0 {
		logger.Warn("export failed, using local copy", zap.String("batch_id", batchID), zap.Error(err))
		return cached, true, nil
	}
	return nil, false, fmt.Errorf("exporting %s: %w", batchID, err)
}

func runReportsForget(cmd *cobra.Command, args []string) error {
	batchID := args[0]
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		if err := a.Archive.Delete(ctx, batchID); err != nil {
			return fmt.Errorf("removing local copy of %s: %w", batchID, err)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, map[string]string{"forgotten": batchID}, "Local copy of "+batchID+" removed")
	})
}
