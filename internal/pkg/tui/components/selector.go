package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/pkg/tui/theme"
)

// Option represents a selectable case
type Option struct {
	Label string
	ID    int
}

// CaseOptions lists cases as "#id [module] question".
func CaseOptions(cases []domain.TestCase) []Option {
	opts := make([]Option, len(cases))
	for i, c := range cases {
		label := c.Question
		if c.Module != "" {
			label = "[" + c.Module + "] " + label
		}
		opts[i] = Option{Label: fmt.Sprintf("#%d %s", c.ID, label), ID: c.ID}
	}
	return opts
}

// Selector is a multi-select list of cases
type Selector struct {
	Label    string
	Options  []Option
	Selected map[int]bool
	Cursor   int
	Focused  bool
	// Height is the number of rows shown; 0 shows everything.
	Height int
	styles *theme.Styles
}

// NewSelector creates a focused multi-select selector
func NewSelector(label string, options []Option) Selector {
	return Selector{
		Label:    label,
		Options:  options,
		Selected: make(map[int]bool),
		Focused:  true,
		styles:   theme.Default(),
	}
}

// SelectedIDs returns the selected ids in list order
func (s Selector) SelectedIDs() []int {
	var result []int
	for _, opt := range s.Options {
		if s.Selected[opt.ID] {
			result = append(result, opt.ID)
		}
	}
	return result
}

// Update handles key events for the selector
func (s Selector) Update(msg tea.Msg) (Selector, tea.Cmd) {
	if !s.Focused || len(s.Options) == 0 {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "k", "up":
			if s.Cursor > 0 {
				s.Cursor--
			}
		case "j", "down":
			if s.Cursor < len(s.Options)-1 {
				s.Cursor++
			}
		case "g", "home":
			s.Cursor = 0
		case "G", "end":
			s.Cursor = len(s.Options) - 1
		case " ", "x":
			id := s.Options[s.Cursor].ID
			s.Selected[id] = !s.Selected[id]
		case "a":
			s.toggleAll()
		}
	}

	return s, nil
}

// toggleAll selects every option, or clears the selection when all are
// already selected.
func (s *Selector) toggleAll() {
	all := len(s.SelectedIDs()) == len(s.Options)
	s.Selected = make(map[int]bool)
	if all {
		return
	}
	for _, opt := range s.Options {
		s.Selected[opt.ID] = true
	}
}

// window returns the visible slice bounds keeping the cursor in view.
func (s Selector) window() (int, int) {
	n := len(s.Options)
	if s.Height <= 0 || n <= s.Height {
		return 0, n
	}
	start := s.Cursor - s.Height/2
	if start < 0 {
		start = 0
	}
	if start+s.Height > n {
		start = n - s.Height
	}
	return start, start + s.Height
}

// View renders the selector
func (s Selector) View() string {
	var b strings.Builder

	b.WriteString(s.styles.Subtitle.Render(s.Label))
	b.WriteString(s.styles.Muted.Render(fmt.Sprintf("  %d/%d selected", len(s.SelectedIDs()), len(s.Options))))
	b.WriteString("\n\n")

	start, end := s.window()
	for i := start; i < end; i++ {
		opt := s.Options[i]
		isSelected := s.Selected[opt.ID]
		isCursor := s.Focused && i == s.Cursor

		indicator := " "
		if isCursor {
			indicator = s.styles.Active.Render(">")
		}

		bullet := s.styles.Muted.Render("[ ]")
		if isSelected {
			bullet = s.styles.Selected.Render("[x]")
		}

		var label string
		switch {
		case isCursor:
			label = s.styles.Cursor.Render(opt.Label)
		case isSelected:
			label = s.styles.Selected.Render(opt.Label)
		default:
			label = s.styles.Muted.Render(opt.Label)
		}

		b.WriteString(fmt.Sprintf("  %s %s %s\n", indicator, bullet, label))
	}

	return b.String()
}
