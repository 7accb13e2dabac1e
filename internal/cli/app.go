package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/adapters/helixapi"
	"github.com/emiliopalmerini/helix-console/internal/adapters/otel"
	"github.com/emiliopalmerini/helix-console/internal/adapters/pushchan"
	"github.com/emiliopalmerini/helix-console/internal/adapters/storage"
	"github.com/emiliopalmerini/helix-console/internal/adapters/turso"
	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/infrastructure/config"
	"github.com/emiliopalmerini/helix-console/internal/infrastructure/database"
	"github.com/emiliopalmerini/helix-console/internal/logging"
	"github.com/emiliopalmerini/helix-console/internal/migrate"
	"github.com/emiliopalmerini/helix-console/internal/ports"
	"github.com/emiliopalmerini/helix-console/internal/runner"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

const journalWriteTimeout = 5 * time.Second

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config  *config.Console
	DataDir string
	Logger  *zap.Logger
	Metrics ports.ConsoleMetrics
	API     *helixapi.Client
	Archive *storage.ReportArchive

	// DB and Journal are nil when the journal could not be opened.
	DB      *database.Client
	Journal *turso.JournalRepository

	Store   *runner.Store
	Console *runner.Console
}

type appOptions struct {
	journal bool
	verbose bool
}

type appOption func(*appOptions)

// withJournal opens the run journal and migrates it.
func withJournal() appOption {
	return func(o *appOptions) { o.journal = true }
}

// verbose keeps info logs; data commands otherwise only log warnings.
func verbose() appOption {
	return func(o *appOptions) { o.verbose = true }
}

// loadConfig reads HELIX_* and applies the global flag overrides.
func loadConfig() (*config.Console, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagWSURL != "" {
		cfg.WSURL = flagWSURL
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, cfg.Validate()
}

// NewAppContext creates an AppContext with all dependencies initialized.
func NewAppContext(ctx context.Context, opts ...appOption) (*AppContext, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Debug: flagDebug, Quiet: !o.verbose})
	if err != nil {
		return nil, err
	}

	dataDir, err := util.DataDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	a := &AppContext{Config: cfg, DataDir: dataDir, Logger: logger}

	a.Metrics = otel.NewNoOpExporter()
	if cfg.Telemetry.Enabled {
		exp, err := otel.NewExporter(ctx, otel.ConfigFrom(cfg.Telemetry))
		if err != nil {
			logger.Warn("metrics disabled", zap.Error(err))
		} else {
			a.Metrics = exp
		}
	}

	a.API, err = helixapi.NewClient(
		helixapi.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout},
		helixapi.WithLogger(logger),
		helixapi.WithMetrics(a.Metrics),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	a.Archive, err = storage.NewReportArchive(dataDir)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize report archive: %w", err)
	}

	if o.journal {
		if err := a.openJournal(ctx); err != nil {
			logger.Warn("run journal unavailable", zap.Error(err))
		}
	}

	if err := a.buildConsole(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *AppContext) openJournal(ctx context.Context) error {
	db, err := database.Open(database.Options{
		URL:       a.Config.Journal.URL,
		AuthToken: a.Config.Journal.AuthToken,
		DataDir:   a.DataDir,
	})
	if err != nil {
		return err
	}
	if _, err := migrate.New(db.DB, a.Logger).Up(ctx, 0); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrating journal: %w", err)
	}
	a.DB = db
	a.Journal = turso.NewJournalRepository(db.DB)
	return nil
}

func (a *AppContext) buildConsole() error {
	var journal ports.RunJournal
	var storeOpts []runner.StoreOption
	if a.Journal != nil {
		journal = a.Journal
		storeOpts = append(storeOpts, runner.WithLogSink(a.journalSink()))
	}
	a.Store = runner.NewStore(storeOpts...)

	dialer, err := pushchan.NewDialer(pushchan.Config{
		APIURL:           a.Config.APIURL,
		WSURL:            a.Config.WSURL,
		HandshakeTimeout: a.Config.Timeout,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to configure push channel: %w", err)
	}

	dispatcher := runner.NewDispatcher(a.Store, a.Logger, a.Metrics)
	followerOpts := []runner.FollowerOption{
		runner.WithReconnectDelay(a.Config.ReconnectDelay),
		runner.WithLogger(a.Logger),
	}
	consoleOpts := []runner.ConsoleOption{
		runner.WithConsoleMetrics(a.Metrics),
		runner.WithConsoleLogger(a.Logger),
	}
	if journal != nil {
		followerOpts = append(followerOpts, runner.WithJournal(journal))
		consoleOpts = append(consoleOpts, runner.WithConsoleJournal(journal))
	}
	follower := runner.NewFollower(dialer, a.Store, dispatcher, followerOpts...)
	a.Console = runner.NewConsole(a.API, a.Store, follower, consoleOpts...)
	return nil
}

// journalSink copies every feed line into the journal. Write failures are
// logged, never surfaced to the feed.
func (a *AppContext) journalSink() runner.LogSink {
	return func(batchID string, entry domain.LogEntry) {
		if batchID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()
		if err := a.Journal.AppendLog(ctx, batchID, entry); err != nil {
			a.Logger.Warn("failed to journal log line", zap.String("batch_id", batchID), zap.Error(err))
		}
	}
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close() error {
	var firstErr error
	if a.Metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.Metrics.Close(ctx); err != nil {
			firstErr = err
		}
		cancel()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return firstErr
}

// withApp runs fn with a fresh AppContext and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *AppContext) error, opts ...appOption) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := NewAppContext(ctx, opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
