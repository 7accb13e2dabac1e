package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/migrations"
)

// Migration is one versioned schema step with its up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Status describes where the journal schema stands.
type Status struct {
	Current int
	Latest  int
	Dirty   bool
	Pending []Migration
}

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// Migrator applies the embedded migrations to a journal database.
type Migrator struct {
	db     *sql.DB
	source fs.FS
	logger *zap.Logger
}

// New returns a migrator over the embedded journal schema.
func New(db *sql.DB, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, source: migrations.FS, logger: logger.With(zap.String("component", "migrate"))}
}

// EnsureMigrationsTable creates the schema_migrations table if it doesn't exist.
func (m *Migrator) EnsureMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// CurrentVersion returns the applied version and whether the last step failed halfway.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, bool, error) {
	var version, dirty int
	err := m.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty == 1, nil
}

func (m *Migrator) setVersion(ctx context.Context, version int, dirty bool) error {
	dirtyInt := 0
	if dirty {
		dirtyInt = 1
	}
	if _, err := m.db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		return err
	}
	if version <= 0 {
		return nil
	}
	_, err := m.db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirtyInt)
	return err
}

// Load reads the embedded migration files sorted by version.
func (m *Migrator) Load() ([]Migration, error) {
	var result []Migration

	err := fs.WalkDir(m.source, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := upPattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}
		version, _ := strconv.Atoi(matches[1])

		upSQL, err := fs.ReadFile(m.source, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		downSQL, err := fs.ReadFile(m.source, strings.TrimSuffix(p, ".up.sql")+".down.sql")
		if err != nil {
			downSQL = nil
		}

		result = append(result, Migration{
			Version: version,
			Name:    matches[2],
			UpSQL:   string(upSQL),
			DownSQL: string(downSQL),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}

// Status reports the applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	if err := m.EnsureMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	current, dirty, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	all, err := m.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	st := &Status{Current: current, Dirty: dirty}
	for _, mig := range all {
		st.Latest = mig.Version
		if mig.Version > current {
			st.Pending = append(st.Pending, mig)
		}
	}
	return st, nil
}

// Up applies every pending migration up to target; target 0 means latest.
// It returns how many steps ran.
func (m *Migrator) Up(ctx context.Context, target int) (int, error) {
	current, all, err := m.prepare(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range all {
		if mig.Version <= current {
			continue
		}
		if target > 0 && mig.Version > target {
			break
		}
		if err := m.run(ctx, mig, true); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// DownTo reverts applied migrations until the schema is at target.
func (m *Migrator) DownTo(ctx context.Context, target int) (int, error) {
	current, all, err := m.prepare(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := len(all) - 1; i >= 0; i-- {
		mig := all[i]
		if mig.Version > current {
			continue
		}
		if mig.Version <= target {
			break
		}
		if mig.DownSQL == "" {
			return count, fmt.Errorf("no down migration for version %d", mig.Version)
		}
		if err := m.run(ctx, mig, false); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *Migrator) prepare(ctx context.Context) (int, []Migration, error) {
	if err := m.EnsureMigrationsTable(ctx); err != nil {
		return 0, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	current, dirty, err := m.CurrentVersion(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return 0, nil, fmt.Errorf("database is in dirty state at version %d", current)
	}
	all, err := m.Load()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return current, all, nil
}

func (m *Migrator) run(ctx context.Context, mig Migration, up bool) error {
	direction := "up"
	sqlContent := mig.UpSQL
	target := mig.Version
	if !up {
		direction = "down"
		sqlContent = mig.DownSQL
		target = mig.Version - 1
	}

	m.logger.Info("applying migration",
		zap.String("direction", direction),
		zap.Int("version", mig.Version),
		zap.String("name", mig.Name))

	if err := m.setVersion(ctx, mig.Version, true); err != nil {
		return fmt.Errorf("failed to set dirty flag: %w", err)
	}

	for _, stmt := range SplitSQL(sqlContent) {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %d %s: %w\nSQL: %s", mig.Version, direction, err, stmt)
		}
	}

	if err := m.setVersion(ctx, target, false); err != nil {
		return fmt.Errorf("failed to clear dirty flag: %w", err)
	}
	return nil
}

// SplitSQL splits a script on semicolons and drops empty statements.
func SplitSQL(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// RunAll brings the journal schema to the latest version.
func RunAll(ctx context.Context, db *sql.DB) error {
	_, err := New(db, nil).Up(ctx, 0)
	return err
}
