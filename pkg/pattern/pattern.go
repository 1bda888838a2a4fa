package pattern

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/james-see/dicebridge/pkg/converter"
)

// maxAttempts bounds the retries spent looking for a pattern within the polyphony limits
const maxAttempts = 10000

// Rows is the voice order of a sliced DICE bar, top row first
var Rows = []string{
	"SAMPLE4", "SAMPLE3", "SAMPLE2", "SAMPLE1", "CB", "CY", "OH", "CH",
	"HT", "MT", "LT", "BT", "CP", "RS", "SD", "BD",
}

// ErrNoValidPattern is returned when no candidate meets the polyphony limits
var ErrNoValidPattern = errors.New("no pattern within polyphony limits")

// Pattern is a stack of voice sequences of equal length
type Pattern struct {
	Sequences []*Sequence
}

// Triggers returns one trigger row per sequence
func (p *Pattern) Triggers() [][]int {
	out := make([][]int, len(p.Sequences))
	for i, s := range p.Sequences {
		out[i] = s.Triggers()
	}
	return out
}

// Labels returns the voice labels in row order
func (p *Pattern) Labels() []string {
	out := make([]string, len(p.Sequences))
	for i, s := range p.Sequences {
		out[i] = s.Label
	}
	return out
}

// Polyphony returns the number of voices triggered at each step
func (p *Pattern) Polyphony() []int {
	var poly []int
	for _, row := range p.Triggers() {
		for len(poly) < len(row) {
			poly = append(poly, 0)
		}
		for i, v := range row {
			poly[i] += v
		}
	}
	return poly
}

// MeetsPolyphonyRequirements reports whether no step exceeds maxPolyphony voices
// and the steps reaching it add up to at most maxFull
func (p *Pattern) MeetsPolyphonyRequirements(maxPolyphony, maxFull int) bool {
	poly := p.Polyphony()
	if maxPolyphony <= 0 {
		for _, v := range poly {
			if v > 0 {
				return false
			}
		}
		return true
	}

	full := 0
	for _, v := range poly {
		if v > maxPolyphony {
			return false
		}
		full += v / maxPolyphony
	}
	return full <= maxFull
}

// NewRandomPattern generates candidates until one meets the config's polyphony limits
func NewRandomPattern(cfg *RandomPatternConfig, rng *rand.Rand) (*Pattern, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		p := &Pattern{Sequences: make([]*Sequence, 0, len(cfg.RandomSequenceConfigs))}
		for _, sc := range cfg.RandomSequenceConfigs {
			seq, err := NewRandomSequence(sc, rng)
			if err != nil {
				return nil, fmt.Errorf("sequence %q: %w", sc.Label, err)
			}
			p.Sequences = append(p.Sequences, seq)
		}
		if p.MeetsPolyphonyRequirements(cfg.MaxPolyphony, cfg.MaxNumEventsWithFullPolyphony) {
			return p, nil
		}
	}
	return nil, ErrNoValidPattern
}

// FillEmptySequencesWithRandom replaces every silent voice with a generated one,
// retrying until the pattern meets the polyphony limits. The config for a voice
// is the one with the same label, or else the one at the same row.
func (p *Pattern) FillEmptySequencesWithRandom(cfg *RandomPatternConfig, rng *rand.Rand) error {
	var empty []int
	for i, s := range p.Sequences {
		if s.IsEmpty() {
			empty = append(empty, i)
		}
	}
	if len(empty) == 0 {
		return nil
	}

	original := make([]*Sequence, len(p.Sequences))
	copy(original, p.Sequences)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		for _, i := range empty {
			sc, ok := cfg.sequenceConfigFor(original[i].Label, i)
			if !ok {
				continue
			}
			seq, err := NewRandomSequence(sc, rng)
			if err != nil {
				return fmt.Errorf("sequence %q: %w", sc.Label, err)
			}
			seq.Label = original[i].Label
			p.Sequences[i] = seq
		}
		if p.MeetsPolyphonyRequirements(cfg.MaxPolyphony, cfg.MaxNumEventsWithFullPolyphony) {
			return nil
		}
	}

	copy(p.Sequences, original)
	return ErrNoValidPattern
}

func (c *RandomPatternConfig) sequenceConfigFor(label string, row int) (RandomSequenceConfig, bool) {
	for _, sc := range c.RandomSequenceConfigs {
		if strings.EqualFold(sc.Label, label) {
			return sc, true
		}
	}
	if row < len(c.RandomSequenceConfigs) {
		return c.RandomSequenceConfigs[row], true
	}
	return RandomSequenceConfig{}, false
}

// FromTriggers builds a pattern from label to trigger rows. Rows follow
// order; labels not in order come after it, sorted.
func FromTriggers(triggers map[string][]int, order []string) *Pattern {
	p := &Pattern{}
	seen := make(map[string]bool, len(triggers))

	for _, label := range order {
		row, ok := triggers[label]
		if !ok {
			continue
		}
		seen[label] = true
		p.Sequences = append(p.Sequences, &Sequence{Label: label, Clusters: [][]int{row}})
	}

	var rest []string
	for label := range triggers {
		if !seen[label] {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	for _, label := range rest {
		p.Sequences = append(p.Sequences, &Sequence{Label: label, Clusters: [][]int{triggers[label]}})
	}
	return p
}

// Load reads a sliced bar file ({"triggers": {...}}) into a pattern
func Load(path string) (*Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern: %w", err)
	}

	var bar struct {
		Triggers map[string][]int `json:"triggers"`
	}
	if err := json.Unmarshal(data, &bar); err != nil {
		return nil, fmt.Errorf("failed to parse pattern: %w", err)
	}
	if len(bar.Triggers) == 0 {
		return nil, errors.New("pattern has no triggers")
	}
	return FromTriggers(bar.Triggers, Rows), nil
}

// Coo converts the first 16 steps of every voice the kit knows into DICE
// coordinates, ordered by step then pitch slot
func (p *Pattern) Coo(kit converter.Kit) converter.Coo {
	var pairs []converter.Pair
	for _, s := range p.Sequences {
		pitch, ok := kit.Pitch(s.Label)
		if !ok {
			continue
		}
		y := pitch - converter.DrumRackInitialPitch
		if y < 0 || y >= converter.GridSize {
			continue
		}
		for x, v := range s.Triggers() {
			if x >= converter.GridSize {
				break
			}
			if v != 0 {
				pairs = append(pairs, converter.Pair{
					X: x + converter.TensorInitialIndex,
					Y: y + converter.TensorInitialIndex,
				})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].X != pairs[j].X {
			return pairs[i].X < pairs[j].X
		}
		return pairs[i].Y < pairs[j].Y
	})

	coo := make(converter.Coo, 0, len(pairs)*2)
	for _, pr := range pairs {
		coo = append(coo, pr.X, pr.Y)
	}
	return coo
}
