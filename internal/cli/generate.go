package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate test cases from business metadata",
}

var generatePreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the metadata cases are generated from",
	Args:  cobra.NoArgs,
	RunE:  runGeneratePreview,
}

var generateCasesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Ask the backend to generate new cases",
	Long: fmt.Sprintf(`Ask the backend to generate new cases. The count is kept between %d and %d.

Examples:
  helix generate cases --count 5`, domain.MinGenerateCount, domain.MaxGenerateCount),
	Args: cobra.NoArgs,
	RunE: runGenerateCases,
}

var generateCount int

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.AddCommand(generatePreviewCmd)
	generateCmd.AddCommand(generateCasesCmd)

	generateCasesCmd.Flags().IntVarP(&generateCount, "count", "n", domain.DefaultGenerateCount, "Number of cases to generate")
}

func runGeneratePreview(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		meta, err := a.API.PreviewMetadata(ctx)
		if err != nil {
			return fmt.Errorf("loading metadata: %w", err)
		}
		return printResult(cmd.OutOrStdout(), flagOutput, meta, func() *grid { return metadataGrid(*meta) })
	})
}

func metadataGrid(m domain.GeneratorMetadata) *grid {
	g := &grid{headers: []string{"Source", "Count", "Samples"}}
	g.add("indicators", util.FormatNumber(int64(m.IndicatorCount)), truncate(strings.Join(m.SampleIndicators, ", "), 70))
	g.add("companies", util.FormatNumber(int64(m.CompanyCount)), truncate(strings.Join(m.SampleCompanies, ", "), 70))
	return g
}

func runGenerateCases(cmd *cobra.Command, args []string) error {
	count := domain.ClampGenerateCount(generateCount)
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		res, err := a.API.GenerateCases(ctx, count)
		if err != nil {
			return fmt.Errorf("generating cases: %w", err)
		}
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("Generated %d cases", res.Generated)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, res, msg)
	})
}
