package converter

import (
	"fmt"
	"strings"
)

// Cells marks the in-grid coordinates of coo, indexed [y][x] from zero
func Cells(coo Coo) [GridSize][GridSize]bool {
	var cells [GridSize][GridSize]bool
	for _, p := range coo.Pairs() {
		x := p.X - TensorInitialIndex
		y := p.Y - TensorInitialIndex
		if x < 0 || x >= GridSize || y < 0 || y >= GridSize {
			continue
		}
		cells[y][x] = true
	}
	return cells
}

// Grid renders coo as a step grid, highest pitch slot first:
//
//	BD (36)   |x---|x---|x---|x---|
func (c *Converter) Grid(coo Coo) string {
	cells := Cells(coo)

	var b strings.Builder
	for y := GridSize - 1; y >= 0; y-- {
		b.WriteString(fmt.Sprintf("%-14s", c.rowLabel(y)))
		b.WriteString(FormatSteps(cells[y][:]))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSteps renders one row, a bar line every four steps
func FormatSteps(steps []bool) string {
	var b strings.Builder
	b.WriteString("|")
	for i, on := range steps {
		if on {
			b.WriteString("x")
		} else {
			b.WriteString("-")
		}
		if (i+1)%TimeSignature[0] == 0 {
			b.WriteString("|")
		}
	}
	return b.String()
}

func (c *Converter) rowLabel(y int) string {
	pitch := y + DrumRackInitialPitch
	if c.kit == nil {
		return fmt.Sprintf("%d", pitch)
	}
	return fmt.Sprintf("%s (%d)", c.kit.Label(pitch), pitch)
}
