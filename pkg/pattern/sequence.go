package pattern

import (
	"errors"
	"math/rand"
)

// Sequence is the trigger row of one voice, made of clusters
type Sequence struct {
	Label    string
	Clusters [][]int
}

// Triggers returns the clusters joined into one row
func (s *Sequence) Triggers() []int {
	var out []int
	for _, c := range s.Clusters {
		out = append(out, c...)
	}
	return out
}

// IsEmpty reports whether the sequence has no triggers
func (s *Sequence) IsEmpty() bool {
	for _, v := range s.Triggers() {
		if v != 0 {
			return false
		}
	}
	return true
}

// NewRandomSequence picks cfg.LengthInClusters clusters with replacement, weighted
func NewRandomSequence(cfg RandomSequenceConfig, rng *rand.Rand) (*Sequence, error) {
	var total float64
	for _, c := range cfg.WeightedClusters {
		if c.Weight < 0 {
			return nil, errors.New("cluster weight must not be negative")
		}
		total += c.Weight
	}
	if total <= 0 {
		return nil, errors.New("total cluster weight must be greater than zero")
	}

	seq := &Sequence{Label: cfg.Label, Clusters: make([][]int, 0, cfg.LengthInClusters)}
	for i := 0; i < cfg.LengthInClusters; i++ {
		r := rng.Float64() * total
		var chosen WeightedCluster
		for _, c := range cfg.WeightedClusters {
			if c.Weight == 0 {
				continue
			}
			chosen = c
			if r < c.Weight {
				break
			}
			r -= c.Weight
		}
		seq.Clusters = append(seq.Clusters, append([]int(nil), chosen.Triggers...))
	}
	return seq, nil
}
