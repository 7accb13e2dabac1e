package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "helix",
	Short: "Operator console for the Helix test runner",
	Long: `helix is the operator console for the Helix Test/AutoTest backend.

Manage test cases and interface templates, start and follow batches,
browse reports, and serve the web console.

Configuration comes from HELIX_* environment variables; the flags below
override them for a single invocation.`,
	SilenceUsage: true,
}

// Global flags
var (
	flagAPIURL   string
	flagWSURL    string
	flagDataDir  string
	flagLogLevel string
	flagDebug    bool
	flagOutput   string
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagAPIURL, "api-url", "", "Backend base URL (HELIX_API_URL)")
	pf.StringVar(&flagWSURL, "ws-url", "", "Push channel base URL (HELIX_WS_URL)")
	pf.StringVar(&flagDataDir, "data-dir", "", "Local data directory (HELIX_DATA_DIR)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (HELIX_LOG_LEVEL)")
	pf.BoolVar(&flagDebug, "debug", false, "Debug logging with the console encoder")
	pf.StringVarP(&flagOutput, "output", "o", formatTable, "Output format: table, json, yaml")
}
