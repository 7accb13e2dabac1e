package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleCases() []domain.TestCase {
	return []domain.TestCase{
		{ID: 3, Question: "revenue by region", Module: "finance"},
		{ID: 5, Question: "headcount"},
		{ID: 8, Question: "churn rate", Module: "growth"},
	}
}

func TestCaseOptions(t *testing.T) {
	got := CaseOptions(sampleCases())
	want := []Option{
		{Label: "#3 [finance] revenue by region", ID: 3},
		{Label: "#5 headcount", ID: 5},
		{Label: "#8 [growth] churn rate", ID: 8},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CaseOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestSelector_ToggleAndMove(t *testing.T) {
	s := NewSelector("Cases", CaseOptions(sampleCases()))

	s, _ = s.Update(key(" "))
	s, _ = s.Update(key("down"))
	s, _ = s.Update(key("down"))
	s, _ = s.Update(key("x"))
	s, _ = s.Update(key("down"))

	if s.Cursor != 2 {
		t.Errorf("cursor should stop at the last option, got %d", s.Cursor)
	}
	if diff := cmp.Diff([]int{3, 8}, s.SelectedIDs()); diff != "" {
		t.Errorf("SelectedIDs mismatch (-want +got):\n%s", diff)
	}

	s, _ = s.Update(key("up"))
	s, _ = s.Update(key("up"))
	s, _ = s.Update(key("up"))
	if s.Cursor != 0 {
		t.Errorf("cursor should stop at 0, got %d", s.Cursor)
	}
}

func TestSelector_ToggleAll(t *testing.T) {
	s := NewSelector("Cases", CaseOptions(sampleCases()))

	s, _ = s.Update(key("a"))
	if len(s.SelectedIDs()) != 3 {
		t.Fatalf("expected all selected, got %v", s.SelectedIDs())
	}
	s, _ = s.Update(key("a"))
	if len(s.SelectedIDs()) != 0 {
		t.Errorf("expected selection cleared, got %v", s.SelectedIDs())
	}
}

func TestSelector_IgnoresKeysWhenBlurred(t *testing.T) {
	s := NewSelector("Cases", CaseOptions(sampleCases()))
	s.Focused = false
	s, _ = s.Update(key(" "))
	if len(s.SelectedIDs()) != 0 {
		t.Error("blurred selector must ignore keys")
	}
}

func TestSelector_WindowFollowsCursor(t *testing.T) {
	var cases []domain.TestCase
	for i := 1; i <= 10; i++ {
		cases = append(cases, domain.TestCase{ID: i, Question: "q"})
	}
	s := NewSelector("Cases", CaseOptions(cases))
	s.Height = 4
	s.Cursor = 9

	start, end := s.window()
	if start != 6 || end != 10 {
		t.Errorf("window = %d..%d, want 6..10", start, end)
	}
	if strings.Count(s.View(), "#") != 4 {
		t.Errorf("expected 4 rows rendered:\n%s", s.View())
	}
}

func TestStatusPips(t *testing.T) {
	cases := []domain.TestCase{
		{ID: 1, Status: domain.CaseStatusPass},
		{ID: 2, Status: domain.CaseStatusFail},
		{ID: 3, Status: domain.CaseStatusRunning},
		{ID: 4, Status: domain.CaseStatusWaiting},
	}
	view := NewStatusPips(cases, 3).View()
	for _, mark := range []string{"*", "x", "o", "+1"} {
		if !strings.Contains(view, mark) {
			t.Errorf("expected %q in %q", mark, view)
		}
	}
}

func TestHelpBar(t *testing.T) {
	view := NewHelpBar(KeyBinding{Key: "q", Desc: "quit"}, KeyBinding{Key: "s", Desc: "stop"}).View()
	if !strings.Contains(view, "quit") || !strings.Contains(view, "stop") {
		t.Errorf("unexpected help bar %q", view)
	}
}
