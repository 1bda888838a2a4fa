package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/matrix"
)

// job is one menu entry: a format conversion or a model run over a coo file
type job struct {
	section  string
	label    string
	about    string
	from, to converter.Format
	generate bool
}

var jobs = []job{
	{section: "host", label: "decode", about: "place every coo pair as a 16th note in a dictionary", from: converter.FormatCoo, to: converter.FormatDict},
	{section: "host", label: "encode", about: "pull the on-grid notes of a dictionary out as coo pairs", from: converter.FormatDict, to: converter.FormatCoo},
	{section: "midi", label: "midi to coo", about: "read the first bar of a drum file as coo pairs", from: converter.FormatMIDI, to: converter.FormatCoo},
	{section: "midi", label: "coo to midi", about: "write coo pairs as a one bar drum file", from: converter.FormatCoo, to: converter.FormatMIDI},
	{section: "midi", label: "midi to dict", about: "load a MIDI file as a note dictionary", from: converter.FormatMIDI, to: converter.FormatDict},
	{section: "midi", label: "dict to midi", about: "write a note dictionary as a drum file", from: converter.FormatDict, to: converter.FormatMIDI},
	{section: "model", label: "generate", about: "run coo pairs through the DICE model", from: converter.FormatCoo, to: converter.FormatCoo, generate: true},
}

// extensions lists the files the browser offers for each input format
var extensions = map[converter.Format][]string{
	converter.FormatMIDI: {".mid", ".midi"},
	converter.FormatDict: {".json"},
	converter.FormatCoo:  {".coo", ".txt"},
}

// jobDone reports a finished job. coo is the pattern drawn on the grid.
type jobDone struct {
	output string
	coo    converter.Coo
	err    error
}

// target names the file a job writes next to its input
func (j job) target(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if j.generate {
		return base + "_dice.coo"
	}
	return base + converter.OutputExtension(j.to)
}

func (j job) run(ctx context.Context, conv *converter.Converter, pipeline *matrix.Pipeline, input string) jobDone {
	data, err := os.ReadFile(input)
	if err != nil {
		return jobDone{err: err}
	}
	out := j.target(input)

	if !j.generate {
		result, err := conv.Convert(data, j.from, j.to)
		if err != nil {
			return jobDone{err: fmt.Errorf("%s: %w", j.label, err)}
		}
		if err := os.WriteFile(out, result, 0644); err != nil {
			return jobDone{err: err}
		}
		coo, _ := converter.ExtractCoo(data, j.from)
		return jobDone{output: out, coo: coo}
	}

	seed, err := converter.ParseCoo(string(data))
	if err != nil {
		return jobDone{err: err}
	}
	generated, err := pipeline.Run(ctx, seed)
	if err != nil {
		return jobDone{err: fmt.Errorf("%s: %w", j.label, err)}
	}
	if err := converter.WriteCooFile(generated, out); err != nil {
		return jobDone{err: err}
	}
	return jobDone{output: out, coo: generated}
}
