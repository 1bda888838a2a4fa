package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMIDI(t *testing.T, path string, notes []converter.Note) {
	t.Helper()
	dict := &converter.NoteDictionary{Notes: notes}
	require.NoError(t, converter.NewMIDIConverter().WriteMIDIFile(dict, path))
}

func grooveNotes() []converter.Note {
	return []converter.Note{
		{StartTime: 0, Pitch: 36, Duration: 0.25, Velocity: 100},
		{StartTime: 1.0625, Pitch: 40, Duration: 0.5, Velocity: 90},
		{StartTime: 2, Pitch: 60, Duration: 0.25, Velocity: 90},
		{StartTime: 8, Pitch: 36, Duration: 0.25, Velocity: 110},
	}
}

func TestGenre(t *testing.T) {
	assert.Equal(t, "funk", Genre("001 Funk Groove.mid"))
	assert.Equal(t, "unknown", Genre("groove.mid"))
}

func TestSliceMIDI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "001 Funk Groove.mid")
	writeMIDI(t, path, grooveNotes())

	m, err := SliceMIDI(path)
	require.NoError(t, err)

	assert.Equal(t, "funk", m.Genre)
	assert.Equal(t, 120, m.BPM)
	assert.Len(t, m.Triggers, len(pattern.Rows))

	assert.Equal(t, 1, m.Triggers["BD"][0])
	assert.Equal(t, 100, m.Velocity["BD"][0])
	assert.Equal(t, 1, m.Duration["BD"][0])

	assert.Equal(t, 1, m.Triggers["SD"][4])
	assert.Equal(t, 90, m.Velocity["SD"][4])
	assert.Equal(t, 2, m.Duration["SD"][4])
	assert.InDelta(t, 0.25, m.Swing["SD"][4], 1e-9)

	assert.Equal(t, 1, m.Triggers["BD"][32])
}

func TestBarsSkipsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "001 Funk Groove.mid")
	writeMIDI(t, path, grooveNotes())

	m, err := SliceMIDI(path)
	require.NoError(t, err)

	bars := m.Bars()
	require.Len(t, bars, 2)
	assert.Equal(t, 0, bars[0].BarIndex)
	assert.Equal(t, 2, bars[1].BarIndex)
	assert.Len(t, bars[1].Triggers["BD"], BarSteps)
	assert.Equal(t, 1, bars[1].Triggers["BD"][0])
}

func TestExportDirectory(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "json")

	writeMIDI(t, filepath.Join(src, "001 Funk Groove.mid"), grooveNotes())
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	writeMIDI(t, filepath.Join(src, "nested", "002 Rock Beat.MID"), grooveNotes()[:1])
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.mid"), []byte("nope"), 0644))

	count, err := ExportDirectory(src, out)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	for _, name := range []string{"DICE_0000.json", "DICE_0001.json", "DICE_0002.json"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)

		var bar Bar
		require.NoError(t, json.Unmarshal(data, &bar))
		assert.Len(t, bar.Triggers, len(pattern.Rows))
	}

	// exported bars load as patterns
	p, err := pattern.Load(filepath.Join(out, "DICE_0000.json"))
	require.NoError(t, err)
	assert.Equal(t, pattern.Rows, p.Labels())
}

func TestRenameSequential(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "DICE_0000.json", "keep.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}

	count, err := RenameSequential(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	data, err := os.ReadFile(filepath.Join(dir, "DICE_0000.json"))
	require.NoError(t, err)
	assert.Equal(t, "DICE_0000.json", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "DICE_0002.json"))
	require.NoError(t, err)
	assert.Equal(t, "b.json", string(data))

	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err)
}
