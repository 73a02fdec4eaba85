// Package tui provides the live monitor shown by "sw-catcher watch --tui".
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/corinthian/sw-catcher/internal/ingest"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	liveStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	dryRunStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)
)

// maxEntries bounds the feed.
const maxEntries = 200

// Options describes what the monitor is watching.
type Options struct {
	WatchDir  string
	DryRun    bool
	Clipboard bool
	// Cancel is called when the user quits.
	Cancel context.CancelFunc
}

// Monitor is the bubbletea model of the watch monitor.
type Monitor struct {
	opts     Options
	spinner  spinner.Model
	viewport viewport.Model
	entries  []FeedEntry
	active   map[string]bool
	copied   int
	failed   int
	width    int
	height   int
	quitting bool
}

// NewMonitor creates the monitor model.
func NewMonitor(opts Options) *Monitor {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(primaryColor)),
	)
	return &Monitor{
		opts:     opts,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		active:   make(map[string]bool),
	}
}

// NewProgram wraps m in a bubbletea program.
func NewProgram(m *Monitor) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// Init implements tea.Model
func (m *Monitor) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.opts.Cancel != nil {
				m.opts.Cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.refresh()

	case EventMsg:
		m.record(ingest.Event(msg))
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Monitor) record(e ingest.Event) {
	switch e.Stage {
	case ingest.StageReceived:
		m.active[e.ID] = true
	case ingest.StageProcessed:
		if !m.opts.Clipboard {
			delete(m.active, e.ID)
		}
	case ingest.StageCopied:
		m.copied++
		delete(m.active, e.ID)
	case ingest.StageFailed:
		m.failed++
		delete(m.active, e.ID)
	}

	m.entries = append(m.entries, newFeedEntry(e))
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
}

func (m *Monitor) refresh() {
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, e.Render())
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// Busy reports whether an artifact is being processed.
func (m *Monitor) Busy() bool {
	return len(m.active) > 0
}

// View implements tea.Model
func (m *Monitor) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	mode := liveStyle.Render("● LIVE")
	if m.opts.DryRun {
		mode = dryRunStyle.Render("◐ DRY-RUN")
	}
	header := titleStyle.Render("sw-catcher monitor")
	header += "  " + mode
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(m.opts.WatchDir)
	if !m.opts.Clipboard {
		header += "  " + helpStyle.Render("(clipboard disabled)")
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(m.width, 20)) + "\n")

	if len(m.entries) == 0 {
		b.WriteString("\n  " + helpStyle.Render("Waiting for dictation artifacts...") + "\n")
	} else {
		b.WriteString(m.viewport.View() + "\n")
	}

	activity := "idle"
	if m.Busy() {
		activity = m.spinner.View() + " processing"
	}
	status := fmt.Sprintf(" %s | Copied: %d | Failed: %d | ↑↓:scroll | q:quit", activity, m.copied, m.failed)
	b.WriteString(statusBarStyle.Width(max(m.width, 20)).Render(status))

	return b.String()
}

// FeedEntry is one line of the event feed.
type FeedEntry struct {
	At     time.Time
	ID     string
	Stage  ingest.Stage
	Path   string
	Detail string
	Failed bool
}

func newFeedEntry(e ingest.Event) FeedEntry {
	fe := FeedEntry{At: e.At, ID: e.ID, Stage: e.Stage, Path: e.Path}
	switch e.Stage {
	case ingest.StageRetrying:
		fe.Detail = fmt.Sprintf("attempt %d", e.Attempt)
		if e.Err != nil {
			fe.Detail += ": " + e.Err.Error()
		}
	case ingest.StageProcessed:
		if len(e.Actions) > 0 {
			fe.Detail = "actions: " + strings.Join(e.Actions, ", ") + " | "
		}
		fe.Detail += truncate(e.Text, 60)
	case ingest.StageCopied:
		fe.Detail = truncate(e.Text, 60)
	case ingest.StageFailed:
		fe.Failed = true
		if e.Err != nil {
			fe.Detail = e.Err.Error()
		}
	}
	return fe
}

// Render formats the entry for the feed.
func (fe FeedEntry) Render() string {
	id := fe.ID
	if len(id) > 8 {
		id = id[:8]
	}
	line := fmt.Sprintf("%s %s %-9s %s",
		fe.At.Format("15:04:05"), formatStage(fe.Stage), id, filepath.Base(filepath.Dir(fe.Path))+"/"+filepath.Base(fe.Path))
	if fe.Detail != "" {
		line += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render(fe.Detail)
	}
	return line
}

func formatStage(s ingest.Stage) string {
	switch s {
	case ingest.StageReceived:
		return lipgloss.NewStyle().Foreground(cyanColor).Render("○ RECEIVED ")
	case ingest.StageSkipped:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("· SKIPPED  ")
	case ingest.StageRetrying:
		return lipgloss.NewStyle().Foreground(warningColor).Render("◐ RETRYING ")
	case ingest.StageProcessed:
		return lipgloss.NewStyle().Foreground(primaryColor).Render("◑ PROCESSED")
	case ingest.StageCopied:
		return lipgloss.NewStyle().Foreground(successColor).Render("● COPIED   ")
	case ingest.StageFailed:
		return lipgloss.NewStyle().Foreground(errorColor).Render("✗ FAILED   ")
	default:
		return s.String()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
