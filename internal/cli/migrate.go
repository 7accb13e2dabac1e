package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/helix-console/internal/infrastructure/database"
	"github.com/emiliopalmerini/helix-console/internal/logging"
	"github.com/emiliopalmerini/helix-console/internal/migrate"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run run journal migrations",
	Long: `Run run journal migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  helix migrate            # Run all pending migrations
  helix migrate 1          # Migrate to version 1
  helix migrate 0          # Rollback all migrations
  helix migrate --status   # Show applied and pending versions`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

var migrateStatus bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Only show the schema version")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Debug: flagDebug, Quiet: true})
	if err != nil {
		return err
	}
	defer logger.Sync()

	dataDir, err := util.DataDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}
	db, err := database.Open(database.Options{URL: cfg.Journal.URL, AuthToken: cfg.Journal.AuthToken, DataDir: dataDir})
	if err != nil {
		return fmt.Errorf("failed to connect to journal: %w", err)
	}
	defer db.Close()

	m := migrate.New(db.DB, logger)
	w := cmd.OutOrStdout()

	st, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if st.Dirty {
		return fmt.Errorf("journal is in dirty state at version %d, manual intervention required", st.Current)
	}
	fmt.Fprintf(w, "Current version: %d (latest %d)\n", st.Current, st.Latest)

	if migrateStatus {
		for _, p := range st.Pending {
			fmt.Fprintf(w, "  pending %03d_%s\n", p.Version, p.Name)
		}
		return nil
	}

	if len(args) == 0 {
		n, err := m.Up(ctx, 0)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(w, "No migrations to run")
			return nil
		}
		fmt.Fprintf(w, "Migrated to version %d (%d migrations applied)\n", st.Latest, n)
		return nil
	}

	target, err := strconv.Atoi(args[0])
	if err != nil || target < 0 {
		return fmt.Errorf("invalid version number: %s", args[0])
	}
	switch {
	case target > st.Current:
		_, err = m.Up(ctx, target)
	case target < st.Current:
		_, err = m.DownTo(ctx, target)
	default:
		fmt.Fprintln(w, "Already at target version")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Migrated to version %d\n", target)
	return nil
}
