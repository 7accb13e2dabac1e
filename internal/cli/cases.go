package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

var casesCmd = &cobra.Command{
	Use:     "cases",
	Aliases: []string{"case"},
	Short:   "Manage test cases",
	Long:    `List, create, edit, toggle, import and delete the backend's test cases.`,
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List test cases",
	Long: `List test cases, optionally filtered.

Examples:
  helix cases list
  helix cases list --search revenue --module sales --priority P0
  helix cases list --status inactive -o json`,
	RunE: runCasesList,
}

var casesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a test case",
	Long: `Create a test case from flags or from a YAML/JSON file.

Examples:
  helix cases create --question "Total revenue in 2025?" --keywords revenue
  helix cases create -f case.yaml`,
	Args: cobra.NoArgs,
	RunE: runCasesCreate,
}

var casesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a test case",
	Long: `Edit a test case. Flags that are not given keep their current value;
with -f the file replaces the whole case.`,
	Args: cobra.ExactArgs(1),
	RunE: runCasesUpdate,
}

var casesEnableCmd = &cobra.Command{
	Use:   "enable <id>...",
	Short: "Activate test cases",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runCasesSetActive(cmd, args, true) },
}

var casesDisableCmd = &cobra.Command{
	Use:   "disable <id>...",
	Short: "Deactivate test cases",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runCasesSetActive(cmd, args, false) },
}

var casesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete test cases",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCasesDelete,
}

var casesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import test cases from a spreadsheet",
	Long: `Upload an .xlsx or .csv file; the backend creates one case per row.

Examples:
  helix cases import regression.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runCasesImport,
}

var casesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every test case",
	Args:  cobra.NoArgs,
	RunE:  runCasesClear,
}

// Flags
var (
	caseSearch     string
	caseModules    []string
	casePriorities []string
	caseStatus     string
	caseLimit      int

	caseFile       string
	caseQuestion   string
	caseKeywords   string
	caseConditions string
	caseSQL        string
	caseInactive   bool

	caseClearYes bool
)

func init() {
	rootCmd.AddCommand(casesCmd)

	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesCreateCmd)
	casesCmd.AddCommand(casesUpdateCmd)
	casesCmd.AddCommand(casesEnableCmd)
	casesCmd.AddCommand(casesDisableCmd)
	casesCmd.AddCommand(casesDeleteCmd)
	casesCmd.AddCommand(casesImportCmd)
	casesCmd.AddCommand(casesClearCmd)

	lf := casesListCmd.Flags()
	lf.StringVarP(&caseSearch, "search", "s", "", "Match id, question, module or keywords")
	lf.StringSliceVarP(&caseModules, "module", "m", nil, "Only these modules (repeatable)")
	lf.StringSliceVarP(&casePriorities, "priority", "p", nil, "Only these priorities: P0, P1, P2 (repeatable)")
	lf.StringVar(&caseStatus, "status", "all", "all, active or inactive")
	lf.IntVar(&caseLimit, "limit", 0, "Maximum cases to fetch (default HELIX_PAGE_SIZE)")

	for _, c := range []*cobra.Command{casesCreateCmd, casesUpdateCmd} {
		f := c.Flags()
		f.StringVarP(&caseFile, "file", "f", "", "Read the case from a YAML/JSON file, - for stdin")
		f.StringVarP(&caseQuestion, "question", "q", "", "Natural-language question")
		f.StringVar(&caseKeywords, "keywords", "", "Expected keywords")
		f.StringVar(&caseConditions, "conditions", "", "Expected conditions")
		f.StringVar(&caseSQL, "sql", "", "Expected SQL")
		f.BoolVar(&caseInactive, "inactive", false, "Create or leave the case inactive")
	}

	casesClearCmd.Flags().BoolVarP(&caseClearYes, "yes", "y", false, "Confirm deleting every case")
}

func runCasesList(cmd *cobra.Command, args []string) error {
	filter := caseFilterFromFlags(caseSearch, caseModules, casePriorities, caseStatus)
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		limit := caseLimit
		if limit <= 0 {
			limit = a.Config.PageSize
		}
		cases, err := listCases(ctx, a.API, limit, filter)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), flagOutput, cases, func() *grid { return caseGrid(cases) })
	})
}

func listCases(ctx context.Context, api ports.CaseService, limit int, filter domain.CaseFilter) ([]domain.TestCase, error) {
	cases, err := api.ListCases(ctx, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	return domain.FilterCases(cases, filter), nil
}

func caseGrid(cases []domain.TestCase) *grid {
	g := &grid{headers: []string{"ID", "Module", "Pri", "Active", "Question", "Last run"}}
	for _, c := range cases {
		g.add(strconv.Itoa(c.ID), orDash(c.Module), orDash(string(c.Priority)), yesNo(c.IsActive), truncate(c.Question, 60), orDash(c.LastRun))
	}
	return g
}

func runCasesCreate(cmd *cobra.Command, args []string) error {
	in := domain.CaseInput{
		Question:           caseQuestion,
		ExpectedKeywords:   caseKeywords,
		ExpectedConditions: caseConditions,
		ExpectedSQL:        caseSQL,
		IsActive:           !caseInactive,
	}
	if caseFile != "" {
		in = domain.CaseInput{IsActive: true}
		if err := readYAMLFile(caseFile, &in); err != nil {
			return err
		}
	}
	if err := in.Validate(); err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		c, err := a.API.CreateCase(ctx, in)
		if err != nil {
			return fmt.Errorf("creating case: %w", err)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, c, fmt.Sprintf("Created case %d", c.ID))
	})
}

func runCasesUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		var in domain.CaseInput
		if caseFile != "" {
			in = domain.CaseInput{IsActive: true}
			if err := readYAMLFile(caseFile, &in); err != nil {
				return err
			}
		} else {
			current, err := findCase(ctx, a.API, id, a.Config.PageSize)
			if err != nil {
				return err
			}
			in = overlayCaseFlags(cmd, inputFromCase(*current))
		}
		if err := in.Validate(); err != nil {
			return err
		}
		c, err := a.API.UpdateCase(ctx, id, in)
		if err != nil {
			return fmt.Errorf("updating case %d: %w", id, err)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, c, fmt.Sprintf("Updated case %d", c.ID))
	})
}

// findCase looks a case up in the listing; the backend has no single-case
// read.
func findCase(ctx context.Context, api ports.CaseService, id, limit int) (*domain.TestCase, error) {
	cases, err := api.ListCases(ctx, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	for i := range cases {
		if cases[i].ID == id {
			return &cases[i], nil
		}
	}
	return nil, fmt.Errorf("case %d not found", id)
}

func inputFromCase(c domain.TestCase) domain.CaseInput {
	return domain.CaseInput{
		Question:           c.Question,
		ExpectedKeywords:   c.ExpectedKeywords,
		ExpectedConditions: c.ExpectedConditions,
		ExpectedSQL:        c.ExpectedSQL,
		IsActive:           c.IsActive,
	}
}

func overlayCaseFlags(cmd *cobra.Command, in domain.CaseInput) domain.CaseInput {
	f := cmd.Flags()
	if f.Changed("question") {
		in.Question = caseQuestion
	}
	if f.Changed("keywords") {
		in.ExpectedKeywords = caseKeywords
	}
	if f.Changed("conditions") {
		in.ExpectedConditions = caseConditions
	}
	if f.Changed("sql") {
		in.ExpectedSQL = caseSQL
	}
	if f.Changed("inactive") {
		in.IsActive = !caseInactive
	}
	return in
}

func runCasesSetActive(cmd *cobra.Command, args []string, active bool) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		n, err := setCasesActive(ctx, a.API, ids, active)
		if err != nil {
			return err
		}
		verb := "disabled"
		if active {
			verb = "enabled"
		}
		res := domain.BulkResult{Updated: n, IsActive: active}
		return printMessage(cmd.OutOrStdout(), flagOutput, res, fmt.Sprintf("%d cases %s", n, verb))
	})
}

// setCasesActive uses the single-case toggle for one id and the bulk
// endpoint otherwise.
func setCasesActive(ctx context.Context, api ports.CaseService, ids []int, active bool) (int, error) {
	if len(ids) == 1 {
		if _, err := api.SetCaseActive(ctx, ids[0], active); err != nil {
			return 0, fmt.Errorf("updating case %d: %w", ids[0], err)
		}
		return 1, nil
	}
	res, err := api.SetCasesActive(ctx, ids, active)
	if err != nil {
		return 0, fmt.Errorf("updating cases: %w", err)
	}
	return res.Updated, nil
}

func runCasesDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		n, err := deleteCases(ctx, a.API, ids)
		if err != nil {
			return err
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, domain.BulkResult{Deleted: n}, fmt.Sprintf("%d cases deleted", n))
	})
}

func deleteCases(ctx context.Context, api ports.CaseService, ids []int) (int, error) {
	if len(ids) == 1 {
		if err := api.DeleteCase(ctx, ids[0]); err != nil {
			return 0, fmt.Errorf("deleting case %d: %w", ids[0], err)
		}
		return 1, nil
	}
	res, err := api.DeleteCases(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("deleting cases: %w", err)
	}
	return res.Deleted, nil
}

func runCasesImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		res, err := importCases(ctx, a.API, filepath.Base(path), f)
		if err != nil {
			return err
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, res, fmt.Sprintf("Imported %d cases", res.Imported))
	})
}

func importCases(ctx context.Context, api ports.CaseService, name string, r io.Reader) (*domain.ImportResult, error) {
	res, err := api.ImportCases(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", name, err)
	}
	return res, nil
}

func runCasesClear(cmd *cobra.Command, args []string) error {
	if !caseClearYes {
		return fmt.Errorf("refusing to delete every case without --yes")
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		res, err := a.API.ClearCases(ctx)
		if err != nil {
			return fmt.Errorf("clearing cases: %w", err)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, res, fmt.Sprintf("%d cases deleted", res.Deleted))
	})
}
