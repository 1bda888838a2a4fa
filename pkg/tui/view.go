package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/dicebridge/pkg/converter"
)

// pad colors of the drum machine DICE was trained on
var (
	padOrange = lipgloss.Color("#FF8C1A")
	padAmber  = lipgloss.Color("#FFC94D")
	padRed    = lipgloss.Color("#E8412C")
	unlit     = lipgloss.Color("#5C5C5C")
	panel     = lipgloss.Color("#2A2A2A")

	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(panel).Background(padOrange).Padding(0, 1)
	taglineStyle = lipgloss.NewStyle().Foreground(unlit).PaddingLeft(1)
	sectionStyle = lipgloss.NewStyle().Foreground(padAmber).Underline(true)
	itemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#BDBDBD"))
	cursorStyle  = lipgloss.NewStyle().Foreground(padOrange).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(unlit).PaddingLeft(4)
	failStyle    = lipgloss.NewStyle().Foreground(padRed).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(padOrange).Bold(true)
	stepStyle    = lipgloss.NewStyle().Foreground(padAmber)
	rulerStyle   = lipgloss.NewStyle().Foreground(unlit)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(padOrange).
			Padding(1, 1).
			MarginTop(1)
)

// grid rows start with a label column this wide, see converter.Grid
const labelWidth = 14

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenJobs:
		body = m.jobsView()
	case screenBrowse:
		body = m.browseView()
	case screenWorking:
		body = m.workingView()
	case screenDone:
		body = m.doneView()
	}

	top := bannerStyle.Render("DICE") + taglineStyle.Render("coo pairs ⇄ host note dictionaries")
	return lipgloss.JoinVertical(lipgloss.Left, top, body, m.help.View(keys))
}

func (m Model) jobsView() string {
	var b strings.Builder
	section := ""
	for i, j := range jobs {
		if j.section != section {
			if section != "" {
				b.WriteString("\n")
			}
			section = j.section
			b.WriteString(sectionStyle.Render(section) + "\n")
		}

		line := fmt.Sprintf("%-13s %s → %s", j.label, j.from, j.to)
		if i != m.cursor {
			b.WriteString(itemStyle.Render("  "+line) + "\n")
			continue
		}
		b.WriteString(cursorStyle.Render("▸ "+line) + "\n")
		b.WriteString(hintStyle.Render(j.about) + "\n")
	}
	return panelStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}

func (m Model) browseView() string {
	title := cursorStyle.Render(fmt.Sprintf("%s: choose a %s file", m.job.label, m.job.from))
	return panelStyle.Render(title + "\n\n" + m.browser.View())
}

func (m Model) workingView() string {
	return panelStyle.Render(fmt.Sprintf("%s %s %s", m.spinner.View(), m.job.label, filepath.Base(m.input)))
}

func (m Model) doneView() string {
	if m.done.err != nil {
		return panelStyle.BorderForeground(padRed).Render(
			failStyle.Render(m.job.label+" failed") + "\n\n" + m.done.err.Error())
	}

	lines := []string{
		doneStyle.Render(m.job.label + " finished"),
		"",
		"read   " + filepath.Base(m.input),
		"wrote  " + filepath.Base(m.done.output),
	}
	if m.done.coo != nil {
		lines = append(lines,
			"",
			rulerStyle.Render(fmt.Sprintf("%d of %d cells lit", litCells(m.done.coo), converter.GridSize*converter.GridSize)),
			rulerStyle.Render(stepRuler()),
			stepStyle.Render(strings.TrimSuffix(m.conv.Grid(m.done.coo), "\n")),
		)
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// stepRuler numbers the first step of every beat above a grid
func stepRuler() string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth+1))
	for step := 1; step <= converter.GridSize; step += converter.TimeSignature[0] {
		b.WriteString(fmt.Sprintf("%-*d", converter.TimeSignature[0]+1, step))
	}
	return strings.TrimRight(b.String(), " ")
}

// litCells counts distinct on-grid cells; repeated pairs light one cell
func litCells(coo converter.Coo) int {
	n := 0
	for _, row := range converter.Cells(coo) {
		for _, on := range row {
			if on {
				n++
			}
		}
	}
	return n
}
