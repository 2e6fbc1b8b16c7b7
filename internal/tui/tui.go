// Package tui provides a Bubble Tea terminal user interface for chartpack.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/handiism/chartpack/internal/catalog"
	"github.com/handiism/chartpack/internal/config"
	"github.com/handiism/chartpack/internal/convert"
	"github.com/handiism/chartpack/internal/download"
	chttp "github.com/handiism/chartpack/internal/http"
	"github.com/handiism/chartpack/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	packStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateSearching
	StateBrowse
	StateRunning
	StateComplete
	StateError
)

// inputMode selects what the text input holds.
type inputMode int

const (
	modeURL inputMode = iota
	modeSearch
)

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	mode      inputMode
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	err       error

	// Catalog browsing
	page   *model.PackPage
	cursor int

	// Run context
	ctx     context.Context
	cancel  context.CancelFunc
	tracker *tracker

	jobs    []download.Job
	events  []model.ProgressEvent
	logs    []string
	results []download.JobResult

	width  int
	height int
}

// NewModel creates a new TUI model. A nil settings uses defaults.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "https://example.com/packs/Pack.zip"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		ctx:       ctx,
		cancel:    cancel,
		tracker:   newTracker(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// SearchDoneMsg carries a catalog page.
	SearchDoneMsg struct {
		Page *model.PackPage
		Err  error
	}

	// RunDoneMsg is sent when every pack of a run has finished.
	RunDoneMsg struct {
		Results []download.JobResult
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateBrowse:
				m.state = StateInput
				m.textInput.Focus()
				return m, nil
			case StateRunning, StateSearching:
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "tab":
			if m.state == StateInput {
				m.toggleMode()
				return m, nil
			}

		case "up", "k":
			if m.state == StateBrowse && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.state == StateBrowse && m.page != nil && m.cursor < len(m.page.Packs)-1 {
				m.cursor++
			}

		case "n":
			if m.state == StateBrowse && m.page != nil && m.page.HasNext() {
				m.state = StateSearching
				cmd := m.search(m.page.CurrentPage + 1)
				return m, tea.Batch(cmd, m.spinner.Tick)
			}

		case "enter":
			switch {
			case m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "":
				if m.mode == modeSearch {
					m.state = StateSearching
					cmd := m.search(1)
					return m, tea.Batch(cmd, m.spinner.Tick)
				}
				cmd := m.start(jobsFromInput(m.textInput.Value()))
				return m, cmd

			case m.state == StateBrowse && m.page != nil && len(m.page.Packs) > 0:
				pack := m.page.Packs[m.cursor]
				cmd := m.start([]download.Job{{URL: pack.DownloadURL, PackID: pack.ID}})
				return m, cmd
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SearchDoneMsg:
		if m.state != StateSearching {
			return m, nil
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.page = msg.Page
			m.cursor = 0
			m.state = StateBrowse
		}

	case RunDoneMsg:
		m.results = msg.Results
		m.events, m.logs = m.tracker.snapshot()
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.state == StateRunning {
			m.events, m.logs = m.tracker.snapshot()
			progressCmd := m.progress.SetPercent(overall(m.events, len(m.jobs)))
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) toggleMode() {
	if m.mode == modeURL {
		m.mode = modeSearch
		m.textInput.Placeholder = "pack name"
	} else {
		m.mode = modeURL
		m.textInput.Placeholder = "https://example.com/packs/Pack.zip"
	}
	m.textInput.SetValue("")
}

func (m *Model) reset() {
	m.state = StateInput
	m.err = nil
	m.page = nil
	m.cursor = 0
	m.jobs = nil
	m.events = nil
	m.logs = nil
	m.results = nil
	m.tracker = newTracker()
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// jobsFromInput turns whitespace-separated URLs into jobs numbered from 1.
func jobsFromInput(input string) []download.Job {
	var jobs []download.Job
	for i, u := range strings.Fields(input) {
		jobs = append(jobs, download.Job{URL: u, PackID: model.PackID(i + 1)})
	}
	return jobs
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♪ chartpack"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download and convert chart packs"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateSearching:
		b.WriteString(m.spinner.View() + " " + subtitleStyle.Render("Searching packs..."))
		b.WriteString("\n")
	case StateBrowse:
		b.WriteString(m.viewBrowse())
	case StateRunning:
		b.WriteString(m.viewRunning())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	if m.mode == modeSearch {
		b.WriteString(subtitleStyle.Render("Search the pack catalog:"))
	} else {
		b.WriteString(subtitleStyle.Render("Enter pack URL(s):"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("Downloads: %s", m.settings.DownloadsDir())))
	b.WriteString("\n")
	songPath := m.settings.SongPath
	if songPath == "" {
		songPath = "(not mirrored)"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Songs:     %s", songPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	if m.page == nil || len(m.page.Packs) == 0 {
		b.WriteString(warningStyle.Render("No packs found."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(successStyle.Render(fmt.Sprintf("Page %d/%d (%d packs)", m.page.CurrentPage, m.page.LastPage, m.page.Total)))
	b.WriteString("\n\n")
	for i, p := range m.page.Packs {
		line := fmt.Sprintf("%-40s %6.2f  %3d songs  %s", truncate(p.Name, 40), p.Overall(), p.SongCount, p.Size)
		if i == m.cursor {
			b.WriteString(packStyle.Render("› " + line))
		} else {
			b.WriteString(dimStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewRunning() string {
	var b strings.Builder

	b.WriteString(m.progress.ViewAs(overall(m.events, len(m.jobs))))
	b.WriteString("\n\n")

	for _, e := range m.events {
		status := string(e.Stage)
		if e.Stage == model.StageDownloading && e.Total > 0 {
			status = fmt.Sprintf("%s %.0f%% (%.2f MB)", e.Stage, e.Percent()*100, float64(e.Downloaded)/1024/1024)
		}
		b.WriteString(packStyle.Render(fmt.Sprintf("  ♪ pack %d", e.PackID)))
		b.WriteString(" ")
		b.WriteString(infoStyle.Render(status))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	var converted, failed, artifacts, mirrored int
	for _, r := range m.results {
		if r.Result == nil {
			continue
		}
		c, f, a := convert.Summary(r.Result.Files)
		converted += c
		failed += f
		artifacts += a
		mirrored += len(r.Result.Mirrored)
	}

	box := boxStyle.Render(fmt.Sprintf(
		"✨ Done!\n\n"+
			"Packs:     %d (%d failed)\n"+
			"Charts:    %d converted, %d failed\n"+
			"Artifacts: %d\n"+
			"Mirrored:  %d",
		len(m.results), download.Failed(m.results),
		converted, failed,
		artifacts,
		mirrored,
	))
	b.WriteString(box)
	b.WriteString("\n")

	for _, r := range m.results {
		if r.Err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", r.Job.URL, r.Err)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, line := range m.logs {
		style := dimStyle
		switch {
		case strings.HasPrefix(line, "ERRO"):
			style = errorStyle
		case strings.HasPrefix(line, "WARN"):
			style = warningStyle
		case strings.HasPrefix(line, "INFO"):
			style = infoStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		if m.mode == modeSearch {
			return "enter: search • tab: enter URLs • esc: quit"
		}
		return "enter: start • tab: search catalog • esc: quit"
	case StateBrowse:
		return "↑/↓: select • enter: download • n: next page • esc: back"
	case StateSearching, StateRunning:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: start over • q: quit"
	}
	return ""
}

// search fetches one catalog page for the current input.
func (m *Model) search(page uint64) tea.Cmd {
	query := catalog.Query{
		Page:   page,
		Sort:   catalog.SortString(catalog.SortPopularity, true),
		Search: m.textInput.Value(),
	}
	client := catalog.NewClient(
		chttp.NewClient(chttp.Options{Origin: m.settings.Origin, Timeout: m.settings.Timeout()}),
		m.settings.CatalogURL,
		nil,
	)
	ctx := m.ctx

	return func() tea.Msg {
		p, err := client.FetchPacks(ctx, query)
		return SearchDoneMsg{Page: p, Err: err}
	}
}

// start switches to the running state and launches the pipeline in the
// background. The pipeline logs into the tracker, which the UI polls.
func (m *Model) start(jobs []download.Job) tea.Cmd {
	m.state = StateRunning
	m.jobs = jobs
	m.textInput.Blur()

	logger := log.NewWithOptions(m.tracker, log.Options{Level: log.InfoLevel})
	pipeline := download.NewPipeline(download.ConfigFromSettings(m.settings), download.Options{
		Logger:     logger,
		OnProgress: m.tracker.onProgress,
	})
	ctx := m.ctx

	run := func() tea.Msg {
		results, err := pipeline.RunAll(ctx, jobs)
		return RunDoneMsg{Results: results, Err: err}
	}
	return tea.Batch(run, m.tickProgress(), m.spinner.Tick)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
