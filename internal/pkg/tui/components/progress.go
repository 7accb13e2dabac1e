package components

import (
	"strconv"
	"strings"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/pkg/tui/theme"
)

// StatusPips shows one mark per case of a batch, colored by status.
type StatusPips struct {
	Statuses []domain.CaseStatus
	// Max caps the marks shown; the rest collapse into a "+N" suffix.
	Max    int
	styles *theme.Styles
}

// NewStatusPips creates a pip row for the given cases.
func NewStatusPips(cases []domain.TestCase, max int) StatusPips {
	statuses := make([]domain.CaseStatus, len(cases))
	for i, c := range cases {
		statuses[i] = c.Status
	}
	return StatusPips{
		Statuses: statuses,
		Max:      max,
		styles:   theme.Default(),
	}
}

// Mark is the character drawn for a status.
func Mark(status domain.CaseStatus) string {
	switch status {
	case domain.CaseStatusPass:
		return "*"
	case domain.CaseStatusFail:
		return "x"
	case domain.CaseStatusRunning:
		return "o"
	default:
		return "-"
	}
}

// View renders the pips
func (p StatusPips) View() string {
	shown := p.Statuses
	if p.Max > 0 && len(shown) > p.Max {
		shown = shown[:p.Max]
	}

	marks := make([]string, len(shown))
	for i, st := range shown {
		marks[i] = p.styles.CaseStatus(st).Render(Mark(st))
	}

	var b strings.Builder
	b.WriteString(strings.Join(marks, " "))
	if rest := len(p.Statuses) - len(shown); rest > 0 {
		b.WriteString(p.styles.Muted.Render(" +" + strconv.Itoa(rest)))
	}
	return b.String()
}
