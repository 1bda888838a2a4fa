// Package matrix converts DICE coordinate lists to and from flat row-major
// matrices and prepares them for the model.
package matrix

import (
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/exp/constraints"
)

var errSize = errors.New("invalid matrix values according to size")

// FlatHorizontalFlip reverses every row of a rows x cols matrix
func FlatHorizontalFlip[T any](flat []T, rows, cols int) ([]T, error) {
	if len(flat) != rows*cols {
		return nil, errSize
	}

	flipped := make([]T, 0, len(flat))
	for r := 0; r < rows; r++ {
		row := flat[r*cols : (r+1)*cols]
		for c := cols - 1; c >= 0; c-- {
			flipped = append(flipped, row[c])
		}
	}
	return flipped, nil
}

// FlatToCoo lists the 1-indexed (row, col) of every cell equal to 1, row-major
func FlatToCoo[T constraints.Integer](flat []T, rows, cols int) ([]int, error) {
	if len(flat) != rows*cols {
		return nil, errSize
	}

	coo := []int{}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if flat[r*cols+c] == 1 {
				coo = append(coo, r+1, c+1)
			}
		}
	}
	return coo, nil
}

// CooToFlat sets a 1 for every 1-indexed (row, col) pair of coo
func CooToFlat[T constraints.Integer](coo []T, rows, cols int) ([]int, error) {
	if (rows+cols)%2 != 0 {
		return nil, errors.New("invalid COO coordinates: rows + cols must be even")
	}
	if len(coo)%2 != 0 {
		return nil, errors.New("COO array must have an even number of elements")
	}

	flat := make([]int, rows*cols)
	for i := 0; i < len(coo); i += 2 {
		r := int(coo[i]) - 1
		c := int(coo[i+1]) - 1
		if r < 0 || r >= rows || c < 0 || c >= cols {
			return nil, fmt.Errorf("COO coordinate (%d, %d) outside %dx%d matrix", coo[i], coo[i+1], rows, cols)
		}
		flat[r*cols+c] = 1
	}
	return flat, nil
}

// ApplyNoise adds uniform noise in [-level, level) to every cell. The same seed gives the same noise.
func ApplyNoise[T constraints.Integer | constraints.Float](flat []T, level float32, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float32, len(flat))
	for i, v := range flat {
		out[i] = float32(v) + level*(rng.Float32()*2-1)
	}
	return out
}

// ApplyThreshold maps cells above threshold to 1 and the rest to 0
func ApplyThreshold(flat []float32, threshold float32) []int {
	out := make([]int, len(flat))
	for i, v := range flat {
		if v > threshold {
			out[i] = 1
		}
	}
	return out
}
