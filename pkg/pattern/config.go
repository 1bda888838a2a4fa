// Package pattern builds DICE drum patterns: one trigger sequence per kit
// voice, generated from weighted clusters or loaded from sliced bars.
package pattern

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WeightedCluster is a run of triggers picked with the given relative weight
type WeightedCluster struct {
	Triggers []int   `yaml:"triggers" json:"triggers"`
	Weight   float64 `yaml:"weight" json:"weight"`
}

// RandomSequenceConfig describes how to generate one voice
type RandomSequenceConfig struct {
	Label            string            `yaml:"label" json:"label"`
	WeightedClusters []WeightedCluster `yaml:"weighted_clusters" json:"weighted_clusters"`
	LengthInClusters int               `yaml:"length_in_clusters" json:"length_in_clusters"`
}

// RandomPatternConfig describes a whole pattern and its polyphony limits
type RandomPatternConfig struct {
	RandomSequenceConfigs         []RandomSequenceConfig `yaml:"random_sequence_configs" json:"random_sequence_configs"`
	MaxPolyphony                  int                    `yaml:"max_polyphony" json:"max_polyphony"`
	MaxNumEventsWithFullPolyphony int                    `yaml:"max_num_events_with_full_polyphony" json:"max_num_events_with_full_polyphony"`
}

// ParseRandomPatternConfig parses a YAML or JSON preset. Presets list voices
// top row first, so the sequence configs are reversed after parsing.
func ParseRandomPatternConfig(data []byte) (*RandomPatternConfig, error) {
	var cfg RandomPatternConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}

	for i := range cfg.RandomSequenceConfigs {
		if cfg.RandomSequenceConfigs[i].LengthInClusters == 0 {
			cfg.RandomSequenceConfigs[i].LengthInClusters = 4
		}
	}

	seqs := cfg.RandomSequenceConfigs
	for i, j := 0, len(seqs)-1; i < j; i, j = i+1, j-1 {
		seqs[i], seqs[j] = seqs[j], seqs[i]
	}
	return &cfg, nil
}

// LoadRandomPatternConfig reads a preset file
func LoadRandomPatternConfig(path string) (*RandomPatternConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}
	return ParseRandomPatternConfig(data)
}
