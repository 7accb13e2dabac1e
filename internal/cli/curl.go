package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var curlCmd = &cobra.Command{
	Use:   "curl",
	Short: "cURL import tools",
}

var curlParseCmd = &cobra.Command{
	Use:   "parse [command]",
	Short: "Turn a cURL command into a template draft",
	Long: `Parse a cURL command on the backend and print a template draft that
templates create accepts. Without an argument the command is read from stdin.

Examples:
  helix curl parse "curl -X POST https://api.example.com/v1/search -d '{\"q\":\"x\"}'" -o yaml > draft.yaml
  pbpaste | helix curl parse -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCurlParse,
}

func init() {
	rootCmd.AddCommand(curlCmd)
	curlCmd.AddCommand(curlParseCmd)
}

func runCurlParse(cmd *cobra.Command, args []string) error {
	var command string
	if len(args) == 1 {
		command = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		command = string(data)
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("no cURL command given")
	}

	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		parsed, err := a.API.ParseCurl(ctx, command)
		if err != nil {
			return fmt.Errorf("parsing cURL command: %w", err)
		}
		draft := parsed.ToTemplate()
		return printResult(cmd.OutOrStdout(), flagOutput, draft, func() *grid { return templateDetailGrid(draft) })
	})
}
