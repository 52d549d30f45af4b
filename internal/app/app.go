// Package app is the interactive terminal UI: a menu over the pipeline
// operations with live stage progress.
package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openfueldata/cardata/internal/config"
	"github.com/openfueldata/cardata/internal/export"
	"github.com/openfueldata/cardata/internal/inspector"
	"github.com/openfueldata/cardata/internal/pipeline"
	"github.com/openfueldata/cardata/internal/statcan"
	"github.com/openfueldata/cardata/internal/store"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	menuStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("79"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	stageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type appState int

const (
	showMenu appState = iota
	running
	showResult
)

// Menu entries, in display order.
const (
	choiceRun     = "Run pipeline"
	choiceStatCan = "Ingest StatCan registrations"
	choiceInspect = "Inspect tables"
	choiceExport  = "Export Parquet"
	choiceQuit    = "Quit"
)

// Model is the bubbletea model driving the UI.
type Model struct {
	cfg    config.Config
	st     *store.Store
	logger *slog.Logger

	state   appState
	choices []string
	cursor  int

	spinner  spinner.Model
	progress progress.Model

	task    string
	stage   string
	current int
	total   int
	detail  string

	result string
	err    error

	msgs chan tea.Msg
}

// stageMsg carries a pipeline progress update into the UI loop.
type stageMsg struct {
	stage   string
	current int
	total   int
	detail  string
}

// doneMsg signals that the background task finished.
type doneMsg struct {
	err    error
	result string
}

// New builds the model around an already-open store.
func New(cfg config.Config, st *store.Store, logger *slog.Logger) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		cfg:      cfg,
		st:       st,
		logger:   logger,
		state:    showMenu,
		choices:  []string{choiceRun, choiceStatCan, choiceInspect, choiceExport, choiceQuit},
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		msgs:     make(chan tea.Msg, 16),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// waitMsg pumps the next background message into the update loop.
func (m *Model) waitMsg() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.progress.Width = max(10, msg.Width-6)
		return m, nil

	case stageMsg:
		m.stage = msg.stage
		m.current = msg.current
		m.total = msg.total
		m.detail = msg.detail
		return m, m.waitMsg()

	case doneMsg:
		m.state = showResult
		m.err = msg.err
		m.result = msg.result
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case showMenu:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			return m.launch(m.choices[m.cursor])
		}
	case showResult:
		if msg.String() == "enter" || msg.String() == "esc" || msg.String() == "q" {
			m.state = showMenu
			m.err = nil
			m.result = ""
		}
	case running:
		// Tasks are not cancellable mid-flight beyond ctrl+c.
	}
	return m, nil
}

// launch starts the selected task in the background and switches to the
// progress view.
func (m *Model) launch(choice string) (tea.Model, tea.Cmd) {
	if choice == choiceQuit {
		return m, tea.Quit
	}

	m.state = running
	m.task = choice
	m.stage = ""
	m.current = 0
	m.total = 0
	m.detail = ""

	notify := func(stage string, current, total int, detail string) {
		m.msgs <- stageMsg{stage: stage, current: current, total: total, detail: detail}
	}

	go func() {
		ctx := context.Background()
		switch choice {
		case choiceRun:
			err := pipeline.Run(ctx, m.cfg, m.st, m.logger, notify)
			m.msgs <- doneMsg{err: err, result: "Pipeline finished."}
		case choiceStatCan:
			err := statcan.Ingest(ctx, m.cfg, m.st, m.logger)
			m.msgs <- doneMsg{err: err, result: "StatCan tables ingested."}
		case choiceInspect:
			summaries, err := inspector.Inspect(ctx, m.st.DB(), m.logger)
			m.msgs <- doneMsg{err: err, result: inspector.Render(summaries)}
		case choiceExport:
			err := export.Tables(ctx, m.st.DB(), m.cfg.OutputDir, m.logger)
			m.msgs <- doneMsg{err: err, result: "Tables exported to " + m.cfg.OutputDir}
		}
	}()

	return m, tea.Batch(m.waitMsg(), m.spinner.Tick)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("cardata") + "\n\n")

	switch m.state {
	case showMenu:
		for i, choice := range m.choices {
			line := "  " + choice
			if i == m.cursor {
				line = "> " + selectedStyle.Render(choice)
			}
			b.WriteString(menuStyle.Render(line) + "\n")
		}
		b.WriteString("\n" + infoStyle.Render("up/down to move, enter to select, q to quit") + "\n")

	case running:
		b.WriteString(m.spinner.View() + " " + m.task + "\n\n")
		if m.stage != "" {
			b.WriteString(stageStyle.Render(m.stage))
			if m.detail != "" {
				b.WriteString(infoStyle.Render("  " + m.detail))
			}
			b.WriteString("\n")
		}
		if m.total > 0 {
			b.WriteString(m.progress.ViewAs(float64(m.current)/float64(m.total)) + "\n")
		}

	case showResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
		} else if m.result != "" {
			b.WriteString(m.result)
			if !strings.HasSuffix(m.result, "\n") {
				b.WriteString("\n")
			}
		}
		b.WriteString("\n" + infoStyle.Render("enter to return to menu") + "\n")
	}
	return b.String()
}
