package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/pkg/tui/components"
	"github.com/emiliopalmerini/helix-console/internal/pkg/tui/theme"
)

// ErrPickAborted is returned when the user leaves the picker without
// confirming.
var ErrPickAborted = errors.New("case selection aborted")

// Picker lets the user choose which cases to run.
type Picker struct {
	selector  components.Selector
	help      components.HelpBar
	styles    *theme.Styles
	confirmed bool
}

// NewPicker lists cases for selection.
func NewPicker(cases []domain.TestCase) *Picker {
	return &Picker{
		selector: components.NewSelector("Select cases to run", components.CaseOptions(cases)),
		help: components.NewHelpBar(
			components.KeyBinding{Key: "space", Desc: "toggle"},
			components.KeyBinding{Key: "a", Desc: "all"},
			components.KeyBinding{Key: "enter", Desc: "run"},
			components.KeyBinding{Key: "q", Desc: "cancel"},
		),
		styles: theme.Default(),
	}
}

// Init implements tea.Model
func (p *Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		case "enter":
			p.confirmed = true
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		p.selector.Height = max(msg.Height-6, 3)
		return p, nil
	}

	var cmd tea.Cmd
	p.selector, cmd = p.selector.Update(msg)
	return p, cmd
}

// View implements tea.Model
func (p *Picker) View() string {
	return p.styles.Container.Render(lipgloss.JoinVertical(lipgloss.Left,
		p.selector.View(),
		p.styles.Help.Render(p.help.View()),
	))
}

// Chosen returns the selected ids, or ErrPickAborted when the user
// cancelled. An empty confirmed selection returns no ids and no error.
func (p *Picker) Chosen() ([]int, error) {
	if !p.confirmed {
		return nil, ErrPickAborted
	}
	return p.selector.SelectedIDs(), nil
}

// Pick runs the picker and returns the chosen case ids.
func Pick(ctx context.Context, cases []domain.TestCase) ([]int, error) {
	picker := NewPicker(cases)
	if _, err := tea.NewProgram(picker, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return nil, err
	}
	return picker.Chosen()
}
