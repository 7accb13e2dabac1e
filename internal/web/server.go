package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/health"
	"github.com/emiliopalmerini/helix-console/internal/ports"
	"github.com/emiliopalmerini/helix-console/internal/runner"
	"github.com/emiliopalmerini/helix-console/internal/shared/middleware"
)

//go:embed static/*
var staticFiles embed.FS

const defaultCaseLimit = 1000

// RunController starts, attaches to and stops batches on behalf of the
// runner page. *runner.Console implements it.
type RunController interface {
	Store() *runner.Store
	Start(ctx context.Context, caseIDs []int, cases []domain.TestCase) (*domain.RunTicket, error)
	Attach(ctx context.Context, batch domain.ActiveBatch) error
	Stop(ctx context.Context) (string, error)
	FollowInBackground(parent context.Context, batchID string)
}

// HealthSource reports the last known backend reachability.
type HealthSource interface {
	Status() health.Status
}

type Server struct {
	api     ports.HelixAPI
	runs    RunController
	health  HealthSource
	archive ports.ReportArchive
	journal ports.RunJournal
	logger  *zap.Logger
	router  *http.ServeMux

	addr      string
	apiURL    string
	caseLimit int

	// baseCtx outlives requests; followers started from a handler use it.
	baseCtx context.Context
}

type Option func(*Server)

func WithHealth(h HealthSource) Option {
	return func(s *Server) { s.health = h }
}

func WithArchive(a ports.ReportArchive) Option {
	return func(s *Server) { s.archive = a }
}

func WithJournal(j ports.RunJournal) Option {
	return func(s *Server) { s.journal = j }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAPIURL sets the backend address shown on the dashboard.
func WithAPIURL(u string) Option {
	return func(s *Server) { s.apiURL = u }
}

func WithCaseLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.caseLimit = n
		}
	}
}

func NewServer(api ports.HelixAPI, runs RunController, addr string, opts ...Option) *Server {
	s := &Server{
		api:       api,
		runs:      runs,
		addr:      addr,
		router:    http.NewServeMux(),
		logger:    zap.NewNop(),
		caseLimit: defaultCaseLimit,
		baseCtx:   context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "web"))
	s.setupRoutes()
	return s
}

// Handler returns the routed handler wrapped with the HTMX middleware.
func (s *Server) Handler() http.Handler {
	return middleware.HTMX(s.router)
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static filesystem: %v", err))
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.HandleFunc("GET /{$}", s.handleDashboard)
	s.router.HandleFunc("GET /partials/health", s.handleHealthPartial)
	s.router.HandleFunc("GET /journal/{batch}", s.handleJournalRun)

	// Cases
	s.router.HandleFunc("GET /cases", s.handleCases)
	s.router.HandleFunc("GET /cases/new", s.handleNewCase)
	s.router.HandleFunc("POST /cases", s.handleCreateCase)
	s.router.HandleFunc("GET /cases/{id}/edit", s.handleEditCase)
	s.router.HandleFunc("POST /cases/{id}", s.handleUpdateCase)
	s.router.HandleFunc("PATCH /cases/{id}/active", s.handleToggleCase)
	s.router.HandleFunc("DELETE /cases/{id}", s.handleDeleteCase)
	s.router.HandleFunc("POST /cases/bulk", s.handleBulkCases)
	s.router.HandleFunc("POST /cases/import", s.handleImportCases)
	s.router.HandleFunc("POST /cases/clear", s.handleClearCases)

	// Templates
	s.router.HandleFunc("GET /templates", s.handleTemplates)
	s.router.HandleFunc("GET /templates/new", s.handleNewTemplate)
	s.router.HandleFunc("POST /templates", s.handleCreateTemplate)
	s.router.HandleFunc("GET /templates/{id}/edit", s.handleEditTemplate)
	s.router.HandleFunc("POST /templates/{id}", s.handleUpdateTemplate)
	s.router.HandleFunc("DELETE /templates/{id}", s.handleDeleteTemplate)
	s.router.HandleFunc("POST /templates/curl", s.handleParseCurl)
	s.router.HandleFunc("POST /templates/debug", s.handleDebugTemplate)

	// Reports
	s.router.HandleFunc("GET /reports", s.handleReports)
	s.router.HandleFunc("GET /reports/{id}", s.handleReport)
	s.router.HandleFunc("GET /reports/{id}/export", s.handleExportReport)
	s.router.HandleFunc("DELETE /reports/{id}/archive", s.handleForgetReport)

	// Runner
	s.router.HandleFunc("GET /runner", s.handleRunner)
	s.router.HandleFunc("GET /runner/state", s.handleRunnerState)
	s.router.HandleFunc("GET /runner/events", s.handleRunnerEvents)
	s.router.HandleFunc("POST /runner/stop", s.handleStopRun)
	s.router.HandleFunc("POST /runner/attach/{batch}", s.handleAttach)

	// Settings and generator
	s.router.HandleFunc("GET /settings", s.handleSettings)
	s.router.HandleFunc("POST /settings", s.handleSaveSettings)
	s.router.HandleFunc("GET /generator", s.handleGenerator)
	s.router.HandleFunc("POST /generator", s.handleGenerate)
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = ctx
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting server", zap.String("addr", s.addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("server shutdown error", zap.Error(err))
		return err
	}
	return nil
}
