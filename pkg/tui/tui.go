// Package tui provides a terminal user interface for dicebridge
package tui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/matrix"
)

type screen int

const (
	screenJobs screen = iota
	screenBrowse
	screenWorking
	screenDone
)

// Model is the bubbletea model: pick a job, pick its input file, show the result
type Model struct {
	screen   screen
	cursor   int
	job      job
	input    string
	done     jobDone
	browser  filepicker.Model
	spinner  spinner.Model
	help     help.Model
	conv     *converter.Converter
	pipeline *matrix.Pipeline
}

// New creates a model labelling grid rows with kit. A nil pipeline uses the default model.
func New(kit converter.Kit, pipeline *matrix.Pipeline) Model {
	browser := filepicker.New()
	browser.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(padOrange)

	if pipeline == nil {
		pipeline = matrix.NewPipeline()
	}

	return Model{
		browser:  browser,
		spinner:  s,
		help:     help.New(),
		conv:     converter.New(kit),
		pipeline: pipeline,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.help.Width = size.Width
		m.browser.SetHeight(max(size.Height-12, 4))
		return m, nil
	}

	// the browser reads directories through its own messages
	if m.screen == screenBrowse {
		return m.updateBrowse(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case jobDone:
		m.done = msg
		m.screen = screenDone
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case is(msg, keys.Quit):
		return m, tea.Quit
	case is(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.screen {
	case screenJobs:
		switch {
		case is(msg, keys.Up):
			m.cursor = max(m.cursor-1, 0)
		case is(msg, keys.Down):
			m.cursor = min(m.cursor+1, len(jobs)-1)
		case is(msg, keys.Open):
			m.job = jobs[m.cursor]
			m.browser.AllowedTypes = extensions[m.job.from]
			m.screen = screenBrowse
			return m, m.browser.Init()
		}

	case screenDone:
		if is(msg, keys.Open, keys.Back) {
			m.screen = screenJobs
			m.input = ""
			m.done = jobDone{}
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case is(k, keys.Back):
			m.screen = screenJobs
			return m, nil
		case is(k, keys.Quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.browser, cmd = m.browser.Update(msg)

	if picked, path := m.browser.DidSelectFile(msg); picked {
		m.input = path
		m.screen = screenWorking
		return m, tea.Batch(m.spinner.Tick, m.start())
	}
	return m, cmd
}

// start runs the selected job off the update loop
func (m Model) start() tea.Cmd {
	j, conv, pipeline, input := m.job, m.conv, m.pipeline, m.input
	return func() tea.Msg {
		return j.run(context.Background(), conv, pipeline, input)
	}
}

// Run starts the TUI application
func Run(kit converter.Kit, pipeline *matrix.Pipeline) error {
	_, err := tea.NewProgram(New(kit, pipeline), tea.WithAltScreen()).Run()
	return err
}
