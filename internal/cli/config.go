package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the backend execution settings",
	Long:  `Show or change the backend's user token, worker count and default headers.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the execution settings",
	Long:  `Show the execution settings. The user token is masked unless --reveal is given.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change execution settings",
	Long: `Change execution settings. Only the given flags are sent.

Examples:
  helix config set --workers 8
  helix config set --token "$HELIX_USER_TOKEN"
  helix config set --header X-Tenant=acme --header X-Trace=1`,
	Args: cobra.NoArgs,
	RunE: runConfigSet,
}

// Flags
var (
	configReveal  bool
	configToken   string
	configWorkers int
	configHeaders []string
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	configShowCmd.Flags().BoolVar(&configReveal, "reveal", false, "Print the user token unmasked")

	f := configSetCmd.Flags()
	f.StringVar(&configToken, "token", "", "User token sent with every case")
	f.IntVar(&configWorkers, "workers", 0, "Maximum parallel workers")
	f.StringArrayVar(&configHeaders, "header", nil, "Default header as Name=value (repeatable; replaces all headers)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		cfg, err := a.API.GetConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return printConfig(cmd, *cfg)
	})
}

func printConfig(cmd *cobra.Command, cfg domain.SystemConfig) error {
	if !configReveal {
		cfg.UserToken = cfg.MaskedToken()
	}
	return printResult(cmd.OutOrStdout(), flagOutput, cfg, func() *grid { return configGrid(cfg) })
}

func configGrid(cfg domain.SystemConfig) *grid {
	g := &grid{headers: []string{"Setting", "Value"}}
	g.add("user_token", orDash(cfg.UserToken))
	g.add("max_workers", strconv.Itoa(cfg.MaxWorkers))
	names := make([]string, 0, len(cfg.Headers))
	for k := range cfg.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		g.add("header "+k, cfg.Headers[k])
	}
	return g
}

// configUpdateFromFlags sends only what the user changed.
func configUpdateFromFlags(cmd *cobra.Command) (domain.ConfigUpdate, error) {
	var u domain.ConfigUpdate
	f := cmd.Flags()
	if f.Changed("token") {
		token := strings.TrimSpace(configToken)
		u.UserToken = &token
	}
	if f.Changed("workers") {
		workers := configWorkers
		u.MaxWorkers = &workers
	}
	if f.Changed("header") {
		headers, err := parsePairs(configHeaders)
		if err != nil {
			return u, err
		}
		u.Headers = headers
	}
	if u.IsEmpty() {
		return u, fmt.Errorf("nothing to change: give --token, --workers or --header")
	}
	return u, u.Validate()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	u, err := configUpdateFromFlags(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *AppContext) error {
		cfg, err := a.API.UpdateConfig(ctx, u)
		if err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		return printConfig(cmd, *cfg)
	})
}
