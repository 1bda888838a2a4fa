package converter

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// bounds of the float values that truncate to an int
const (
	minIntFloat = float64(math.MinInt)
	maxIntFloat = -float64(math.MinInt)
)

// Coo is a flat list of 1-indexed x, y pairs: x is the step, y the pitch slot
type Coo []int

// Pair is one 1-indexed grid coordinate
type Pair struct {
	X, Y int
}

// Pairs returns the complete pairs in order. A trailing unpaired value is ignored.
func (c Coo) Pairs() []Pair {
	pairs := make([]Pair, 0, len(c)/2)
	for i := 0; i+1 < len(c); i += 2 {
		pairs = append(pairs, Pair{X: c[i], Y: c[i+1]})
	}
	return pairs
}

// String formats the list the way the host prints a list message
func (c Coo) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

// ParseCoo parses whitespace or comma separated numbers. Fractional values
// are truncated toward zero, as the host does when reading list atoms as ints.
func ParseCoo(text string) (Coo, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '[' || r == ']'
	})

	coo := make(Coo, 0, len(fields))
	for i, f := range fields {
		if v, err := strconv.Atoi(f); err == nil {
			coo = append(coo, v)
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if t := math.Trunc(v); err != nil || math.IsNaN(v) || t < minIntFloat || t >= maxIntFloat {
			return nil, fmt.Errorf("invalid coordinate at position %d: %q", i, f)
		}
		coo = append(coo, int(v))
	}
	return coo, nil
}

// ParseCooFile reads a coordinate list from a text file
func ParseCooFile(filename string) (Coo, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read coo file: %w", err)
	}
	return ParseCoo(string(data))
}

// WriteCooFile writes a coordinate list as a single line of text
func WriteCooFile(coo Coo, filename string) error {
	return os.WriteFile(filename, []byte(coo.String()+"\n"), 0644)
}

// ValidateCoo checks that a list is complete and lies inside the grid
func ValidateCoo(coo Coo) error {
	if len(coo)%2 != 0 {
		return errors.New("coo list must have an even number of elements")
	}
	for i, p := range coo.Pairs() {
		if p.X < TensorInitialIndex || p.X >= GridSize+TensorInitialIndex {
			return fmt.Errorf("x out of range at pair %d: %d (1-%d)", i, p.X, GridSize)
		}
		if p.Y < TensorInitialIndex || p.Y >= GridSize+TensorInitialIndex {
			return fmt.Errorf("y out of range at pair %d: %d (1-%d)", i, p.Y, GridSize)
		}
	}
	return nil
}
