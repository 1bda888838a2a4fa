// Package kits provides drum kit layouts that name the rows of a DICE grid
package kits

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-see/dicebridge/pkg/converter"
)

// Table is a Kit backed by a pitch to label map
type Table struct {
	id      string
	name    string
	labels  map[int]string
	pitches map[string]int
}

// NewTable builds a kit from a pitch to label map. Labels are matched case-insensitively.
func NewTable(id, name string, labels map[int]string) *Table {
	t := &Table{
		id:      id,
		name:    name,
		labels:  labels,
		pitches: make(map[string]int, len(labels)),
	}
	for pitch, label := range labels {
		t.pitches[strings.ToUpper(label)] = pitch
	}
	return t
}

// Name returns the kit name
func (t *Table) Name() string {
	return t.name
}

// ID returns the kit id
func (t *Table) ID() string {
	return t.id
}

// Label returns the row label for a pitch, or the pitch number if the kit has none
func (t *Table) Label(pitch int) string {
	if l, ok := t.labels[pitch]; ok {
		return l
	}
	return fmt.Sprintf("%d", pitch)
}

// Voice returns the label of a pitch and whether the kit has one
func (t *Table) Voice(pitch int) (string, bool) {
	l, ok := t.labels[pitch]
	return l, ok
}

// Pitch returns the pitch of a labelled row
func (t *Table) Pitch(label string) (int, bool) {
	p, ok := t.pitches[strings.ToUpper(label)]
	return p, ok
}

// Labels returns the kit labels ordered by ascending pitch
func (t *Table) Labels() []string {
	pitches := make([]int, 0, len(t.labels))
	for p := range t.labels {
		pitches = append(pitches, p)
	}
	sort.Ints(pitches)

	out := make([]string, len(pitches))
	for i, p := range pitches {
		out[i] = t.labels[p]
	}
	return out
}

// DrumRack is Ableton's default 16-pad drum rack, C1 to D#2, with General MIDI names
func DrumRack() *Table {
	return NewTable("drumrack", "Ableton Drum Rack", map[int]string{
		36: "Kick",
		37: "Side Stick",
		38: "Snare",
		39: "Clap",
		40: "Snare 2",
		41: "Low Floor Tom",
		42: "Closed Hat",
		43: "High Floor Tom",
		44: "Pedal Hat",
		45: "Low Tom",
		46: "Open Hat",
		47: "Low Mid Tom",
		48: "High Mid Tom",
		49: "Crash",
		50: "High Tom",
		51: "Ride",
	})
}

// DICE is the 16-voice kit the DICE training set is sliced with
func DICE() *Table {
	return NewTable("dice", "DICE 16-voice", map[int]string{
		36: "BD",
		37: "CP",
		38: "RS",
		39: "BT",
		40: "SD",
		41: "LT",
		42: "CH",
		43: "MT",
		44: "CY",
		45: "CB",
		46: "OH",
		47: "SAMPLE1",
		48: "SAMPLE2",
		49: "SAMPLE3",
		50: "HT",
		51: "SAMPLE4",
	})
}

// All returns every built-in kit
func All() []*Table {
	return []*Table{DrumRack(), DICE()}
}

// Lookup returns the kit for an id or alias, falling back to the drum rack
func Lookup(id string) converter.Kit {
	switch strings.ToLower(id) {
	case "dice", "dice16":
		return DICE()
	case "drumrack", "drum-rack", "ableton", "":
		return DrumRack()
	default:
		return DrumRack()
	}
}
