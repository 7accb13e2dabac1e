package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/pkg/tui/components"
	"github.com/emiliopalmerini/helix-console/internal/pkg/tui/theme"
	"github.com/emiliopalmerini/helix-console/internal/runner"
)

// Screen identifies the current screen
type Screen int

const (
	ScreenCases Screen = iota
	ScreenLog
)

// StopFunc asks the backend to stop the active batch.
type StopFunc func(ctx context.Context) (string, error)

type stateMsg struct{}

type stopResultMsg struct {
	message string
	err     error
}

// App is the live runner view: case statuses, progress and the log feed of
// the batch held by the store.
type App struct {
	ctx     context.Context
	store   *runner.Store
	stop    StopFunc
	updates <-chan struct{}
	cancel  func()

	state   runner.State
	screen  Screen
	bar     progress.Model
	logView viewport.Model
	help    components.HelpBar
	notice  string
	styles  *theme.Styles
	width   int
	height  int
}

// NewApp creates a runner view over store. stop may be nil for a read-only
// view.
func NewApp(ctx context.Context, store *runner.Store, stop StopFunc) *App {
	updates, cancel := store.Subscribe()
	a := &App{
		ctx:     ctx,
		store:   store,
		stop:    stop,
		updates: updates,
		cancel:  cancel,
		state:   store.Snapshot(),
		screen:  ScreenCases,
		bar:     progress.New(progress.WithSolidFill(string(theme.Teal))),
		logView: viewport.New(80, 12),
		styles:  theme.Default(),
	}
	bindings := []components.KeyBinding{
		{Key: "1", Desc: "cases"},
		{Key: "2", Desc: "log"},
	}
	if stop != nil {
		bindings = append(bindings, components.KeyBinding{Key: "s", Desc: "stop"})
	}
	a.help = components.NewHelpBar(append(bindings, components.KeyBinding{Key: "q", Desc: "quit"})...)
	a.refreshLog()
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.waitForChange()
}

func (a *App) waitForChange() tea.Cmd {
	updates := a.updates
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return stateMsg{}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.cancel()
			return a, tea.Quit
		case "1":
			a.screen = ScreenCases
			return a, nil
		case "2":
			a.screen = ScreenLog
			return a, nil
		case "s":
			if a.stop == nil || !a.state.Running {
				return a, nil
			}
			a.notice = "Stopping..."
			return a, a.stopCmd()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.bar.Width = max(msg.Width-20, 10)
		a.logView.Width = msg.Width
		a.logView.Height = max(msg.Height-8, 3)
		a.refreshLog()
		return a, nil

	case stateMsg:
		a.state = a.store.Snapshot()
		a.refreshLog()
		return a, a.waitForChange()

	case stopResultMsg:
		if msg.err != nil {
			a.notice = "Stop failed: " + msg.err.Error()
		} else {
			a.notice = msg.message
		}
		return a, nil
	}

	if a.screen == ScreenLog {
		var cmd tea.Cmd
		a.logView, cmd = a.logView.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) stopCmd() tea.Cmd {
	ctx, stop := a.ctx, a.stop
	return func() tea.Msg {
		message, err := stop(ctx)
		return stopResultMsg{message: message, err: err}
	}
}

func (a *App) refreshLog() {
	atBottom := a.logView.AtBottom()
	var b strings.Builder
	for _, entry := range a.state.Logs {
		line := fmt.Sprintf("%s %-5s %s", entry.Clock(), entry.Level, entry.Message)
		b.WriteString(a.styles.Level(entry.Level).Render(line))
		b.WriteString("\n")
	}
	a.logView.SetContent(b.String())
	if atBottom || a.logView.YOffset == 0 {
		a.logView.GotoBottom()
	}
}

// View implements tea.Model
func (a *App) View() string {
	nav := NewNavBar([]NavItem{
		{Key: "1", Label: "Cases", Active: a.screen == ScreenCases},
		{Key: "2", Label: "Log", Active: a.screen == ScreenLog},
	})

	var content string
	switch a.screen {
	case ScreenLog:
		content = a.logView.View()
	default:
		content = a.renderCases()
	}

	parts := []string{a.renderHeader(), a.renderProgress(), nav.View(), "", content}
	if a.notice != "" {
		parts = append(parts, a.styles.Warning.Render(a.notice))
	}
	parts = append(parts, a.styles.Help.Render(a.help.View()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderHeader() string {
	title := a.styles.Title.Render("HELIX RUNNER")

	batch := a.state.ActiveBatchID
	if batch == "" {
		batch = "no active batch"
	}
	status := "idle"
	switch {
	case a.state.Running:
		status = "running"
	case a.state.BatchStatus != "":
		status = strings.ToLower(string(a.state.BatchStatus))
	}

	return lipgloss.JoinHorizontal(lipgloss.Bottom,
		title, "  ",
		a.styles.Subtitle.Render(batch), "  ",
		a.styles.Muted.Render(status))
}

func (a *App) renderProgress() string {
	pass, fail, pending := a.state.Counts()
	counts := fmt.Sprintf(" %3d%%  %s %s %s",
		a.state.Progress,
		a.styles.Success.Render(fmt.Sprintf("%d pass", pass)),
		a.styles.Error.Render(fmt.Sprintf("%d fail", fail)),
		a.styles.Muted.Render(fmt.Sprintf("%d pending", pending)))
	return a.bar.ViewAs(float64(a.state.Progress)/100) + counts
}

func (a *App) renderCases() string {
	if len(a.state.Cases) == 0 {
		return a.styles.Muted.Render("Waiting for the case list...")
	}

	limit := len(a.state.Cases)
	if a.height > 0 {
		limit = min(limit, max(a.height-9, 3))
	}

	var b strings.Builder
	b.WriteString(components.NewStatusPips(a.state.Cases, 60).View())
	b.WriteString("\n\n")
	for _, c := range a.state.Cases[:limit] {
		status := a.styles.CaseStatus(c.Status).Render(fmt.Sprintf("%-7s", c.Status))
		line := fmt.Sprintf("%s #%-5d %s", status, c.ID, c.Question)
		if res, ok := a.state.Results[c.ID]; ok && res.Message != "" && c.Status == domain.CaseStatusFail {
			line += a.styles.Muted.Render("  " + res.Message)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if rest := len(a.state.Cases) - limit; rest > 0 {
		b.WriteString(a.styles.Muted.Render(fmt.Sprintf("... %d more", rest)))
	}
	return b.String()
}

// Run shows the runner view until the user quits or ctx is done.
func Run(ctx context.Context, store *runner.Store, stop StopFunc) error {
	app := NewApp(ctx, store, stop)
	defer app.cancel()

	_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
