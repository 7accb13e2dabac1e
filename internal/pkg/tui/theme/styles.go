package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

// Styles contains all shared TUI styles
type Styles struct {
	// Text styles
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Interactive elements
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Active   lipgloss.Style
	Inactive lipgloss.Style

	// Help and hints
	Help    lipgloss.Style
	HelpKey lipgloss.Style

	// Layout
	Container lipgloss.Style
	Card      lipgloss.Style
	Separator lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

var (
	defaultStyles *Styles
	once          sync.Once
)

// Default returns the singleton default Styles instance
func Default() *Styles {
	once.Do(func() {
		defaultStyles = newStyles()
	})
	return defaultStyles
}

// CaseStatus picks the style of a case status badge.
func (s *Styles) CaseStatus(status domain.CaseStatus) lipgloss.Style {
	switch status {
	case domain.CaseStatusPass:
		return s.Success
	case domain.CaseStatusFail:
		return s.Error
	case domain.CaseStatusRunning:
		return s.Info
	case domain.CaseStatusWaiting:
		return s.Body
	default:
		return s.Muted
	}
}

// Level picks the style of a log feed line.
func (s *Styles) Level(level domain.LogLevel) lipgloss.Style {
	switch level {
	case domain.LevelError:
		return s.Error
	case domain.LevelWarn:
		return s.Warning
	case domain.LevelDebug:
		return s.Muted
	default:
		return s.Body
	}
}

func newStyles() *Styles {
	return &Styles{
		// Text styles
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(White),

		Subtitle: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(LightGray),

		Muted: lipgloss.NewStyle().
			Foreground(DimGray),

		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(White),

		// Interactive elements
		Cursor: lipgloss.NewStyle().
			Foreground(BrightTeal).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Foreground(Teal),

		Active: lipgloss.NewStyle().
			Foreground(BrightTeal).
			Bold(true),

		Inactive: lipgloss.NewStyle().
			Foreground(DimGray),

		// Help and hints
		Help: lipgloss.NewStyle().
			Foreground(DimGray).
			MarginTop(1),

		HelpKey: lipgloss.NewStyle().
			Foreground(LightGray).
			Bold(true),

		// Layout
		Container: lipgloss.NewStyle().
			Padding(1, 2),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DarkGray).
			Padding(0, 1),

		Separator: lipgloss.NewStyle().
			Foreground(DarkGray),

		// Status indicators
		Success: lipgloss.NewStyle().
			Foreground(Success),

		Warning: lipgloss.NewStyle().
			Foreground(Warning),

		Error: lipgloss.NewStyle().
			Foreground(Error),

		Info: lipgloss.NewStyle().
			Foreground(Info),
	}
}
