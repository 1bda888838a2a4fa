package pattern

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/converter/kits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(v []int) int {
	total := 0
	for _, x := range v {
		total += x
	}
	return total
}

var (
	clusterZeros      = WeightedCluster{Triggers: []int{0, 0, 0, 0}, Weight: 1}
	clusterOnes       = WeightedCluster{Triggers: []int{1, 1, 1, 1}, Weight: 1}
	clusterNullWeight = WeightedCluster{Triggers: []int{1, 1, 1, 1}, Weight: 0}
)

func onesAndZerosConfig() *RandomPatternConfig {
	onesAndZeros := RandomSequenceConfig{
		Label:            "ones_and_zeros",
		LengthInClusters: 4,
		WeightedClusters: []WeightedCluster{clusterOnes, clusterZeros},
	}
	return &RandomPatternConfig{
		MaxPolyphony:                  2,
		MaxNumEventsWithFullPolyphony: 2,
		RandomSequenceConfigs: []RandomSequenceConfig{
			onesAndZeros, onesAndZeros, onesAndZeros, onesAndZeros,
		},
	}
}

func simpleTriggers() map[string][]int {
	return map[string][]int{
		"BD": {1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		"SD": {0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0},
		"HH": {0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
		"CH": {0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
}

func TestRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name     string
		clusters []WeightedCluster
		check    func(t *testing.T, total int)
	}{
		{"zeros", []WeightedCluster{clusterZeros}, func(t *testing.T, total int) { assert.Equal(t, 0, total) }},
		{"ones", []WeightedCluster{clusterOnes}, func(t *testing.T, total int) { assert.Equal(t, 16, total) }},
		{"null weight", []WeightedCluster{clusterOnes, clusterNullWeight}, func(t *testing.T, total int) { assert.Equal(t, 16, total) }},
		{"null weight first", []WeightedCluster{{Triggers: []int{0, 0, 0, 0}}, clusterOnes}, func(t *testing.T, total int) { assert.Equal(t, 16, total) }},
		{"zeros and ones", []WeightedCluster{clusterZeros, clusterOnes}, func(t *testing.T, total int) {
			assert.GreaterOrEqual(t, total, 0)
			assert.LessOrEqual(t, total, 16)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := RandomSequenceConfig{Label: "test", WeightedClusters: tt.clusters, LengthInClusters: 4}
			seq, err := NewRandomSequence(cfg, rng)
			require.NoError(t, err)
			assert.Len(t, seq.Triggers(), 16)
			tt.check(t, sum(seq.Triggers()))
		})
	}
}

func TestRandomSequenceRejectsZeroWeights(t *testing.T) {
	cfg := RandomSequenceConfig{Label: "x", WeightedClusters: []WeightedCluster{clusterNullWeight}, LengthInClusters: 4}
	_, err := NewRandomSequence(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestFromTriggers(t *testing.T) {
	p := FromTriggers(simpleTriggers(), Rows)

	require.Len(t, p.Sequences, 4)
	assert.Equal(t, []string{"CH", "SD", "BD", "HH"}, p.Labels())
	assert.Equal(t, simpleTriggers()["BD"], p.Triggers()[2])
	assert.True(t, p.Sequences[0].IsEmpty())
	assert.False(t, p.Sequences[1].IsEmpty())
}

func TestPolyphonyRequirements(t *testing.T) {
	p := FromTriggers(map[string][]int{
		"BD": {1, 1, 1, 0},
		"SD": {1, 1, 0, 0},
	}, Rows)

	assert.Equal(t, []int{2, 2, 1, 0}, p.Polyphony())
	assert.True(t, p.MeetsPolyphonyRequirements(2, 2))
	assert.False(t, p.MeetsPolyphonyRequirements(2, 1))
	assert.False(t, p.MeetsPolyphonyRequirements(1, 10))
	assert.False(t, p.MeetsPolyphonyRequirements(0, 0))
	assert.True(t, (&Pattern{}).MeetsPolyphonyRequirements(0, 0))
}

func TestNewRandomPatternMeetsRequirements(t *testing.T) {
	cfg := onesAndZerosConfig()
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20; i++ {
		p, err := NewRandomPattern(cfg, rng)
		require.NoError(t, err)
		assert.Len(t, p.Sequences, 4)
		assert.True(t, p.MeetsPolyphonyRequirements(cfg.MaxPolyphony, cfg.MaxNumEventsWithFullPolyphony))
	}
}

func TestNewRandomPatternImpossible(t *testing.T) {
	cfg := onesAndZerosConfig()
	for i := range cfg.RandomSequenceConfigs {
		cfg.RandomSequenceConfigs[i].WeightedClusters = []WeightedCluster{clusterOnes}
	}
	_, err := NewRandomPattern(cfg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoValidPattern)
}

func TestFillEmptySequencesWithRandom(t *testing.T) {
	cfg := onesAndZerosConfig()
	p := FromTriggers(simpleTriggers(), Rows)
	require.True(t, p.Sequences[0].IsEmpty())

	require.NoError(t, p.FillEmptySequencesWithRandom(cfg, rand.New(rand.NewSource(5))))

	assert.True(t, p.MeetsPolyphonyRequirements(cfg.MaxPolyphony, cfg.MaxNumEventsWithFullPolyphony))
	assert.Equal(t, "CH", p.Sequences[0].Label)
	assert.Equal(t, simpleTriggers()["BD"], p.Sequences[2].Triggers())
}

func TestPatternCoo(t *testing.T) {
	p := FromTriggers(map[string][]int{
		"BD": {1, 0, 0, 0, 1},
		"SD": {0, 0, 0, 0, 1},
		"XX": {1, 1, 1, 1, 1},
	}, Rows)

	coo := p.Coo(kits.DICE())
	assert.Equal(t, converter.Coo{1, 1, 5, 1, 5, 5}, coo)

	// the coordinates decode onto the kit's pitches
	dict := converter.Decode(coo, nil)
	assert.Equal(t, 36, dict.Notes[0].Pitch)
	assert.Equal(t, 40, dict.Notes[2].Pitch)
}

func TestParseRandomPatternConfig(t *testing.T) {
	preset := `{
  "max_polyphony": 3,
  "max_num_events_with_full_polyphony": 4,
  "random_sequence_configs": [
    {"label": "OH", "length_in_clusters": 2, "weighted_clusters": [{"triggers": [0, 0, 1, 0], "weight": 2}]},
    {"label": "BD", "weighted_clusters": [{"triggers": [1, 0, 0, 0], "weight": 1}]}
  ]
}`
	cfg, err := ParseRandomPatternConfig([]byte(preset))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxPolyphony)
	assert.Equal(t, 4, cfg.MaxNumEventsWithFullPolyphony)
	require.Len(t, cfg.RandomSequenceConfigs, 2)
	assert.Equal(t, "BD", cfg.RandomSequenceConfigs[0].Label)
	assert.Equal(t, 4, cfg.RandomSequenceConfigs[0].LengthInClusters)
	assert.Equal(t, 2, cfg.RandomSequenceConfigs[1].LengthInClusters)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DICE_0000.json")
	data := `{"file": "x.mid", "bar_index": 0, "triggers": {"BD": [1, 0, 0, 0], "SD": [0, 0, 1, 0]}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SD", "BD"}, p.Labels())

	require.NoError(t, os.WriteFile(path, []byte(`{"triggers": {}}`), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
