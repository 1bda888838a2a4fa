// Package dataset slices drum MIDI files into the 16-step bar files DICE trains on
package dataset

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/converter/kits"
	"github.com/james-see/dicebridge/pkg/debug"
	"github.com/james-see/dicebridge/pkg/pattern"
)

const (
	// TotalSteps is how many 16th steps of a file are quantized
	TotalSteps = 128
	// BarSteps is the length of one exported bar
	BarSteps    = 16
	maxDuration = 15
	stepEpsilon = 1e-9
)

// Matrix holds per-voice step data for the first TotalSteps of a file
type Matrix struct {
	File     string
	Genre    string
	BPM      int
	Triggers map[string][]int
	Velocity map[string][]int
	Duration map[string][]int
	Swing    map[string][]float64
}

// Bar is one exported 16-step slice
type Bar struct {
	File     string               `json:"file"`
	BarIndex int                  `json:"bar_index"`
	BPM      int                  `json:"bpm"`
	Genre    string               `json:"genre"`
	Triggers map[string][]int     `json:"triggers"`
	Velocity map[string][]int     `json:"velocity"`
	Duration map[string][]int     `json:"duration"`
	Swing    map[string][]float64 `json:"swing"`
}

// Genre is the second word of a file name, lowercased, or "unknown"
func Genre(filename string) string {
	parts := strings.Fields(filename)
	if len(parts) > 1 {
		return strings.ToLower(parts[1])
	}
	return "unknown"
}

func newMatrix(file string) *Matrix {
	m := &Matrix{
		File:     file,
		Genre:    Genre(file),
		Triggers: make(map[string][]int, len(pattern.Rows)),
		Velocity: make(map[string][]int, len(pattern.Rows)),
		Duration: make(map[string][]int, len(pattern.Rows)),
		Swing:    make(map[string][]float64, len(pattern.Rows)),
	}
	for _, label := range pattern.Rows {
		m.Triggers[label] = make([]int, TotalSteps)
		m.Velocity[label] = make([]int, TotalSteps)
		m.Duration[label] = make([]int, TotalSteps)
		m.Swing[label] = make([]float64, TotalSteps)
	}
	return m
}

// SliceMIDI quantizes the notes of a MIDI file onto the DICE voices.
// Each hit records its velocity, its length in steps (1 to 15) and its swing,
// the offset from the step it was quantized to.
func SliceMIDI(path string) (*Matrix, error) {
	midiConv := converter.NewMIDIConverter()
	dict, err := midiConv.ParseMIDIFile(path)
	if err != nil {
		return nil, err
	}

	m := newMatrix(filepath.Base(path))
	m.BPM = int(math.Round(midiConv.Tempo()))

	kit := kits.DICE()
	stepsPerBeat := float64(converter.TimeSignature[0])

	for _, n := range dict.Notes {
		label, ok := kit.Voice(n.Pitch)
		if !ok {
			continue
		}

		stepFloat := n.StartTime * stepsPerBeat
		step := int(math.Floor(stepFloat + stepEpsilon))
		if step < 0 || step >= TotalSteps {
			continue
		}

		swing := math.Max(stepFloat-float64(step), 0)
		endStep := int(math.Floor((n.StartTime+n.Duration)*stepsPerBeat + stepEpsilon))
		duration := min(max(endStep-step, 1), maxDuration)

		m.Triggers[label][step] = 1
		m.Velocity[label][step] = int(n.Velocity)
		m.Duration[label][step] = duration
		m.Swing[label][step] = math.Round(swing*10000) / 10000
	}
	return m, nil
}

func (m *Matrix) sectionNonZero(start, end int) bool {
	for _, label := range pattern.Rows {
		for _, v := range m.Triggers[label][start:end] {
			if v != 0 {
				return true
			}
		}
	}
	return false
}

// Bars returns the bars of the matrix that contain at least one hit
func (m *Matrix) Bars() []Bar {
	var bars []Bar
	for i := 0; i < TotalSteps/BarSteps; i++ {
		start, end := i*BarSteps, (i+1)*BarSteps
		if !m.sectionNonZero(start, end) {
			continue
		}

		bar := Bar{
			File:     m.File,
			BarIndex: i,
			BPM:      m.BPM,
			Genre:    m.Genre,
			Triggers: make(map[string][]int, len(pattern.Rows)),
			Velocity: make(map[string][]int, len(pattern.Rows)),
			Duration: make(map[string][]int, len(pattern.Rows)),
			Swing:    make(map[string][]float64, len(pattern.Rows)),
		}
		for _, label := range pattern.Rows {
			bar.Triggers[label] = append([]int(nil), m.Triggers[label][start:end]...)
			bar.Velocity[label] = append([]int(nil), m.Velocity[label][start:end]...)
			bar.Duration[label] = append([]int(nil), m.Duration[label][start:end]...)
			bar.Swing[label] = append([]float64(nil), m.Swing[label][start:end]...)
		}
		bars = append(bars, bar)
	}
	return bars
}

// ExportBars writes the non-empty bars of one MIDI file into outDir and returns the written paths
func ExportBars(path, outDir string) ([]string, error) {
	m, err := SliceMIDI(path)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(m.File, filepath.Ext(m.File))
	var written []string
	for _, bar := range m.Bars() {
		data, err := json.MarshalIndent(bar, "", "  ")
		if err != nil {
			return written, err
		}
		out := filepath.Join(outDir, fmt.Sprintf("%s_%s_bar%d.json", m.Genre, stem, bar.BarIndex))
		debug.Log("dataset", "exporting %s", out)
		if err := os.WriteFile(out, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write bar: %w", err)
		}
		written = append(written, out)
	}
	return written, nil
}

// ExportDirectory slices every .mid file under root into outDir, then renames
// the bar files to DICE_0000.json, DICE_0001.json, ... in name order.
// Files that fail to parse are skipped.
func ExportDirectory(root, outDir string) (int, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".mid") {
			return nil
		}
		if _, err := ExportBars(path, outDir); err != nil {
			debug.Error("dataset", fmt.Errorf("%s: %w", path, err))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return RenameSequential(outDir)
}

// RenameSequential renames the .json files of dir to DICE_%04d.json in sorted order
func RenameSequential(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// two passes so a new name never overwrites a file still waiting to be renamed
	tmp := make([]string, len(files))
	for i, f := range files {
		tmp[i] = filepath.Join(dir, fmt.Sprintf(".rename-%04d.tmp", i))
		if err := os.Rename(filepath.Join(dir, f), tmp[i]); err != nil {
			return 0, err
		}
	}
	for i, t := range tmp {
		if err := os.Rename(t, filepath.Join(dir, fmt.Sprintf("DICE_%04d.json", i))); err != nil {
			return i, err
		}
	}
	return len(files), nil
}
