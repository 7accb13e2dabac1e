package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/runner"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func runningStore() *runner.Store {
	s := runner.NewStore()
	s.StartRun([]domain.TestCase{
		{ID: 1, Question: "revenue by region"},
		{ID: 2, Question: "headcount"},
	}, "BATCH-7")
	return s
}

func TestApp_RefreshesOnStoreChange(t *testing.T) {
	store := runningStore()
	app := NewApp(context.Background(), store, nil)
	defer app.cancel()

	store.UpdateCaseStatus(1, domain.CaseStatusPass)
	store.UpdateProgress(50)
	store.AddLog("[PASS] #1: Done", domain.LevelInfo)

	msg := app.waitForChange()()
	if _, ok := msg.(stateMsg); !ok {
		t.Fatalf("expected stateMsg, got %T", msg)
	}
	model, cmd := app.Update(msg)
	if cmd == nil {
		t.Error("expected the app to keep listening for changes")
	}

	view := model.View()
	for _, want := range []string{"BATCH-7", "50%", "1 pass", "revenue by region"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}

	app.Update(runes("2"))
	if !strings.Contains(app.View(), "[PASS] #1: Done") {
		t.Errorf("expected log line on the log screen:\n%s", app.View())
	}
}

func TestApp_StopKey(t *testing.T) {
	store := runningStore()
	var stopped int
	stop := func(context.Context) (string, error) {
		stopped++
		return "Stop signal sent", nil
	}
	app := NewApp(context.Background(), store, stop)
	defer app.cancel()

	_, cmd := app.Update(runes("s"))
	if cmd == nil {
		t.Fatal("expected a stop command while running")
	}
	app.Update(cmd())
	if stopped != 1 {
		t.Errorf("expected one stop call, got %d", stopped)
	}
	if !strings.Contains(app.View(), "Stop signal sent") {
		t.Errorf("expected stop notice in view:\n%s", app.View())
	}

	store.StopRun()
	app.Update(stateMsg{})
	if _, cmd := app.Update(runes("s")); cmd != nil {
		t.Error("stop must be a no-op once the run is over")
	}
}

func TestApp_StopFailureNotice(t *testing.T) {
	app := NewApp(context.Background(), runningStore(), func(context.Context) (string, error) {
		return "", errors.New("batch not found")
	})
	defer app.cancel()

	_, cmd := app.Update(runes("s"))
	app.Update(cmd())
	if !strings.Contains(app.View(), "Stop failed: batch not found") {
		t.Errorf("expected failure notice:\n%s", app.View())
	}
}

func TestApp_QuitReleasesSubscription(t *testing.T) {
	app := NewApp(context.Background(), runningStore(), nil)
	_, cmd := app.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := app.waitForChange()(); msg != nil {
		t.Errorf("expected nil after unsubscribe, got %T", msg)
	}
}

func TestPicker_Chosen(t *testing.T) {
	p := NewPicker([]domain.TestCase{{ID: 4, Question: "a"}, {ID: 9, Question: "b"}})

	if _, err := p.Chosen(); !errors.Is(err, ErrPickAborted) {
		t.Errorf("expected ErrPickAborted before confirm, got %v", err)
	}

	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p.Update(runes("x"))
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit on enter")
	}

	ids, err := p.Chosen()
	if err != nil {
		t.Fatalf("Chosen failed: %v", err)
	}
	if diff := cmp.Diff([]int{9}, ids); diff != "" {
		t.Errorf("Chosen mismatch (-want +got):\n%s", diff)
	}
}
