package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/converter/kits"
	"github.com/james-see/dicebridge/pkg/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestJobNavigation(t *testing.T) {
	m := New(kits.DICE(), nil)

	m = send(t, m, press("j"))
	assert.Equal(t, 1, m.cursor)

	m = send(t, m, press("k"), press("k"))
	assert.Equal(t, 0, m.cursor)

	for range jobs {
		m = send(t, m, press("j"))
	}
	assert.Equal(t, len(jobs)-1, m.cursor)
}

func TestOpenJobFiltersBrowser(t *testing.T) {
	m := New(kits.DICE(), nil)

	m = send(t, m, press("enter"))
	assert.Equal(t, screenBrowse, m.screen)
	assert.Equal(t, "decode", m.job.label)
	assert.Equal(t, []string{".coo", ".txt"}, m.browser.AllowedTypes)

	m = send(t, m, press("esc"))
	assert.Equal(t, screenJobs, m.screen)

	m = send(t, m, press("j"), press("enter"))
	assert.Equal(t, []string{".json"}, m.browser.AllowedTypes)
}

func TestHelpToggle(t *testing.T) {
	m := New(kits.DICE(), nil)
	assert.False(t, m.help.ShowAll)

	m = send(t, m, press("?"))
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "back")
}

func TestJobsAreGroupedBySection(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for _, j := range jobs {
		if j.section != prev {
			assert.False(t, seen[j.section], "section %q is split", j.section)
			seen[j.section] = true
			prev = j.section
		}
		assert.Contains(t, extensions, j.from, j.label)
	}
}

func runJob(t *testing.T, j job, input string) jobDone {
	t.Helper()
	pipeline := &matrix.Pipeline{Threshold: 0.5, Model: matrix.Identity{}}
	return j.run(context.Background(), converter.New(kits.DICE()), pipeline, input)
}

func TestRunDecode(t *testing.T) {
	in := filepath.Join(t.TempDir(), "beat.coo")
	require.NoError(t, os.WriteFile(in, []byte("1 1 5 5\n"), 0644))

	done := runJob(t, jobs[0], in)
	require.NoError(t, done.err)
	assert.Equal(t, filepath.Join(filepath.Dir(in), "beat.json"), done.output)
	assert.Equal(t, converter.Coo{1, 1, 5, 5}, done.coo)

	dict, err := converter.ReadDictFile(done.output)
	require.NoError(t, err)
	assert.Len(t, dict.Notes, 2)
}

func TestRunGenerate(t *testing.T) {
	in := filepath.Join(t.TempDir(), "beat.coo")
	require.NoError(t, os.WriteFile(in, []byte("1 1 5 5\n"), 0644))

	done := runJob(t, jobs[6], in)
	require.NoError(t, done.err)
	assert.Equal(t, filepath.Join(filepath.Dir(in), "beat_dice.coo"), done.output)
	assert.Equal(t, converter.Coo{1, 1, 5, 5}, done.coo)

	coo, err := converter.ParseCooFile(done.output)
	require.NoError(t, err)
	assert.Equal(t, converter.Coo{1, 1, 5, 5}, coo)
}

func TestRunMissingInput(t *testing.T) {
	done := runJob(t, jobs[0], filepath.Join(t.TempDir(), "missing.coo"))
	assert.Error(t, done.err)
}

func TestDoneView(t *testing.T) {
	m := New(kits.DICE(), nil)
	m.job = jobs[0]
	m.input = "beat.coo"

	m = send(t, m, jobDone{output: "beat.json", coo: converter.Coo{1, 1, 1, 1, 5, 3}})
	assert.Equal(t, screenDone, m.screen)

	view := m.View()
	assert.Contains(t, view, "decode finished")
	assert.Contains(t, view, "beat.json")
	assert.Contains(t, view, "2 of 256 cells lit")
	assert.Contains(t, view, "BD (36)")

	m = send(t, m, press("enter"))
	assert.Equal(t, screenJobs, m.screen)
	assert.Empty(t, m.input)
}

func TestDoneViewError(t *testing.T) {
	m := New(kits.DICE(), nil)
	m.job = jobs[1]

	m = send(t, m, jobDone{err: errors.New("no notes key")})
	view := m.View()
	assert.Contains(t, view, "encode failed")
	assert.Contains(t, view, "no notes key")
}

func TestStepRulerLinesUpWithGrid(t *testing.T) {
	ruler := stepRuler()
	rows := strings.Split(converter.New(kits.DICE()).Grid(converter.Coo{1, 1, 5, 1, 9, 1, 13, 1}), "\n")
	// the lowest pitch slot is printed last
	row := rows[converter.GridSize-1]
	require.True(t, strings.HasPrefix(row, "BD (36)"))

	for _, step := range []string{"1", "5", "9", "13"} {
		col := strings.Index(ruler, " "+step) + 1
		require.Greater(t, col, 0, step)
		assert.Equal(t, byte('x'), row[col], "step %s", step)
	}
}
