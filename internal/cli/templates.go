package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template", "tpl"},
	Short:   "Manage interface templates",
	Long:    `List, inspect, create, edit, delete and debug HTTP interface templates.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplatesList,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a template",
	Long: `Show a template. Use -o yaml to get a file that create and update accept.

Examples:
  helix templates show 4 -o yaml > search.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplatesShow,
}

var templatesCreateCmd = &cobra.Command{
	Use:   "create -f <file>",
	Short: "Create a template from a YAML/JSON file",
	Args:  cobra.NoArgs,
	RunE:  runTemplatesCreate,
}

var templatesUpdateCmd = &cobra.Command{
	Use:   "update <id> -f <file>",
	Short: "Replace a template from a YAML/JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesUpdate,
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesDelete,
}

var templatesDebugCmd = &cobra.Command{
	Use:   "debug [id]",
	Short: "Render and execute a template once",
	Long: `Ask the backend to render a template with variables and call the target.

Either pass a saved template id or a draft with -f.

Examples:
  helix templates debug 4 --var question="Total revenue?"
  helix templates debug -f draft.yaml --var company=ACME`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTemplatesDebug,
}

// Flags
var (
	templateFile string
	templateVars []string
)

func init() {
	rootCmd.AddCommand(templatesCmd)

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesCreateCmd)
	templatesCmd.AddCommand(templatesUpdateCmd)
	templatesCmd.AddCommand(templatesDeleteCmd)
	templatesCmd.AddCommand(templatesDebugCmd)

	for _, c := range []*cobra.Command{templatesCreateCmd, templatesUpdateCmd, templatesDebugCmd} {
		c.Flags().StringVarP(&templateFile, "file", "f", "", "Template YAML/JSON file, - for stdin")
	}
	_ = templatesCreateCmd.MarkFlagRequired("file")
	_ = templatesUpdateCmd.MarkFlagRequired("file")
	templatesDebugCmd.Flags().StringArrayVar(&templateVars, "var", nil, "Template variable as key=value (repeatable)")
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		list, err := a.API.ListTemplates(ctx, 0, a.Config.PageSize)
		if err != nil {
			return fmt.Errorf("listing templates: %w", err)
		}
		return printResult(cmd.OutOrStdout(), flagOutput, list, func() *grid { return templateGrid(list) })
	})
}

func templateGrid(list []domain.Template) *grid {
	g := &grid{headers: []string{"ID", "Code", "Name", "Method", "URL", "Active"}}
	for _, t := range list {
		g.add(strconv.Itoa(t.ID), t.Code, truncate(t.Name, 30), t.Method, truncate(t.URL(), 50), yesNo(t.IsActive))
	}
	return g
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		t, err := a.API.GetTemplate(ctx, id)
		if err != nil {
			return fmt.Errorf("loading template %d: %w", id, err)
		}
		return printResult(cmd.OutOrStdout(), flagOutput, t, func() *grid { return templateDetailGrid(*t) })
	})
}

func templateDetailGrid(t domain.Template) *grid {
	g := &grid{headers: []string{"Field", "Value"}}
	g.add("ID", strconv.Itoa(t.ID))
	g.add("Code", t.Code)
	g.add("Name", t.Name)
	g.add("Description", orDash(t.Description))
	g.add("Request", t.Method+" "+t.URL())
	g.add("Body", orDash(t.BodyType))
	g.add("Auth", orDash(t.AuthType))
	g.add("Headers", orDash(t.Headers))
	g.add("Query", orDash(t.QueryParams))
	g.add("Parser", orDash(t.ResponseParser))
	g.add("Timeout", fmt.Sprintf("%ds, %d retries", t.Timeout, t.RetryCount))
	g.add("Active", yesNo(t.IsActive))
	g.add("Updated", formatTS(t.UpdatedAt))
	return g
}

// loadTemplateFile reads, normalizes and validates a template draft.
func loadTemplateFile(path string) (domain.Template, error) {
	t := domain.Template{IsActive: true}
	if err := readYAMLFile(path, &t); err != nil {
		return t, err
	}
	t.Normalize()
	return t, t.Validate()
}

func runTemplatesCreate(cmd *cobra.Command, args []string) error {
	t, err := loadTemplateFile(templateFile)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		created, err := a.API.CreateTemplate(ctx, t)
		if err != nil {
			return fmt.Errorf("creating template: %w", err)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, created, fmt.Sprintf("Created template %d (%s)", created.ID, created.Code))
	})
}

func runTemplatesUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	t, err := loadTemplateFile(templateFile)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		updated, err := a.API.UpdateTemplate(ctx, id, t)
		if err != nil {
			return fmt.Errorf("updating template %d: %w", id, err)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, updated, fmt.Sprintf("Updated template %d", updated.ID))
	})
}

func runTemplatesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		if err := a.API.DeleteTemplate(ctx, id); err != nil {
			return fmt.Errorf("deleting template %d: %w", id, err)
		}
		return printMessage(cmd.OutOrStdout(), flagOutput, map[string]int{"deleted": id}, fmt.Sprintf("Deleted template %d", id))
	})
}

func runTemplatesDebug(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && templateFile == "" {
		return fmt.Errorf("give a template id or a draft with -f")
	}
	vars, err := parseVariables(templateVars)
	if err != nil {
		return err
	}

	var draft *domain.Template
	if templateFile != "" {
		t, err := loadTemplateFile(templateFile)
		if err != nil {
			return err
		}
		draft = &t
	}

	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		t := draft
		if t == nil {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if t, err = a.API.GetTemplate(ctx, id); err != nil {
				return fmt.Errorf("loading template %d: %w", id, err)
			}
		}
		res, err := debugTemplate(ctx, a.API, *t, vars)
		if err != nil {
			return err
		}
		if flagOutput == formatJSON || flagOutput == formatYAML {
			return printResult(cmd.OutOrStdout(), flagOutput, res, nil)
		}
		return writeDebugResult(cmd.OutOrStdout(), res)
	})
}

// parseVariables turns --var flags into template variables. Values that are
// valid JSON keep their type, so --var limit=10 sends a number.
func parseVariables(pairs []string) (map[string]any, error) {
	raw, err := parsePairs(pairs)
	if err != nil {
		return nil, err
	}
	vars := make(map[string]any, len(raw))
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			vars[k] = decoded
			continue
		}
		vars[k] = v
	}
	return vars, nil
}

func debugTemplate(ctx context.Context, api ports.TemplateService, t domain.Template, vars map[string]any) (*domain.TemplateDebugResponse, error) {
	res, err := api.DebugTemplate(ctx, domain.TemplateDebugRequest{Template: t, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("debugging template: %w", err)
	}
	return res, nil
}

func writeDebugResult(w io.Writer, res *domain.TemplateDebugResponse) error {
	req := res.Request
	fmt.Fprintf(w, "Request:  %s %s\n", req.Method, req.URL)
	for k, v := range req.Headers {
		fmt.Fprintf(w, "  %s: %s\n", k, v)
	}
	if req.Body != nil {
		fmt.Fprintf(w, "  body: %s\n", compactJSON(req.Body))
	}
	if res.Error != "" {
		_, err := fmt.Fprintf(w, "Error at %s: %s\n", orDash(res.Step), res.Error)
		return err
	}
	resp := res.Response
	fmt.Fprintf(w, "Response: %d in %.2fs\n", resp.StatusCode, resp.Duration)
	body := resp.Text
	if resp.JSON != nil {
		if b, err := json.MarshalIndent(resp.JSON, "", "  "); err == nil {
			body = string(b)
		}
	}
	_, err := fmt.Fprintln(w, body)
	return err
}

func compactJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
