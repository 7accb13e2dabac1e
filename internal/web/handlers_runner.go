package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/runner"
	"github.com/emiliopalmerini/helix-console/internal/web/templates"
)

func (s *Server) handleRunner(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Runner(s.runs.Store().Snapshot(), noticeFrom(r)))
}

func (s *Server) handleRunnerState(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.RunnerState(s.runs.Store().Snapshot()))
}

// handleRunnerEvents pushes a rendered RunnerState as a "state" event on
// every store change until the client leaves or the server shuts down.
func (s *Server) handleRunnerEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	// The stream outlives the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	store := s.runs.Store()
	changes, cancel := store.Subscribe()
	defer cancel()

	send := func() bool {
		if err := s.writeStateEvent(w, r, store.Snapshot()); err != nil {
			s.logger.Debug("event stream closed", zap.Error(err))
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.baseCtx.Done():
			return
		case _, ok := <-changes:
			if !ok || !send() {
				return
			}
		}
	}
}

func (s *Server) writeStateEvent(w http.ResponseWriter, r *http.Request, st runner.State) error {
	var buf bytes.Buffer
	if err := templates.RunnerState(st).Render(r.Context(), &buf); err != nil {
		return fmt.Errorf("rendering runner state: %w", err)
	}
	_, err := fmt.Fprintf(w, "event: state\n%s\n", sseData(buf.String()))
	return err
}

func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	msg, err := s.runs.Stop(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	redirect(w, r, "/runner", msg)
}

// handleAttach follows a batch the backend is already running.
func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batchID := r.PathValue("batch")

	active, err := s.api.ActiveBatches(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	batch := domain.ActiveBatch{BatchID: batchID}
	for _, b := range active {
		if b.BatchID == batchID {
			batch = b
			break
		}
	}
	if err := s.runs.Attach(ctx, batch); err != nil {
		s.fail(w, r, err)
		return
	}
	s.runs.FollowInBackground(s.baseCtx, batchID)
	redirect(w, r, "/runner", "")
}

// sseData prefixes every line of an HTML fragment for the data field.
func sseData(html string) string {
	var b strings.Builder
	for _, line := range strings.Split(html, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
