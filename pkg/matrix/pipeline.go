package matrix

import (
	"context"
	"fmt"
)

// Size of the square matrix the model works on
const Size = 16

// Model maps a noisy flat matrix to per-cell trigger probabilities
type Model interface {
	Predict(ctx context.Context, input []float32) ([]float32, error)
}

// Identity is a Model that returns its input, which leaves only the
// noise and threshold stages in effect
type Identity struct{}

// Predict returns a copy of input
func (Identity) Predict(_ context.Context, input []float32) ([]float32, error) {
	return append([]float32(nil), input...), nil
}

// Pipeline runs a coordinate list through the model the way the DICE device does
type Pipeline struct {
	Threshold  float32
	NoiseLevel float32
	Seed       int64
	Model      Model
}

// NewPipeline creates a pipeline with the device defaults and the identity model
func NewPipeline() *Pipeline {
	return &Pipeline{
		Threshold:  0.5,
		NoiseLevel: 0.2,
		Model:      Identity{},
	}
}

// Run flattens coo, flips it into model orientation, adds noise, predicts,
// thresholds and converts the result back to a coordinate list
func (p *Pipeline) Run(ctx context.Context, coo []int) ([]int, error) {
	if p.Model == nil {
		return nil, fmt.Errorf("no model configured")
	}

	flat, err := CooToFlat(coo, Size, Size)
	if err != nil {
		return nil, err
	}
	flipped, err := FlatHorizontalFlip(flat, Size, Size)
	if err != nil {
		return nil, err
	}
	input := ApplyNoise(flipped, p.NoiseLevel, p.Seed)

	output, err := p.Model.Predict(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("model prediction failed: %w", err)
	}
	if len(output) != Size*Size {
		return nil, fmt.Errorf("model returned %d values, want %d", len(output), Size*Size)
	}

	triggers, err := FlatHorizontalFlip(ApplyThreshold(output, p.Threshold), Size, Size)
	if err != nil {
		return nil, err
	}
	return FlatToCoo(triggers, Size, Size)
}
