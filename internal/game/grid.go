package game

import "fmt"

// Grid is a fixed 64x64 matrix indexed as Grid[y][x].
// Being an array, assignment copies it.
type Grid [GridSize][GridSize]int

// NewGrid normalizes stored rows into a Grid. Short or narrow input is
// padded with color 0 and anything past 64 cells in either direction is
// dropped. Colors outside the palette are rejected.
func NewGrid(rows [][]int) (Grid, error) {
	var g Grid
	for y := 0; y < GridSize && y < len(rows); y++ {
		for x := 0; x < GridSize && x < len(rows[y]); x++ {
			c := rows[y][x]
			if c < 0 || c > MaxColor {
				return Grid{}, fmt.Errorf("%w: color %d at (%d,%d)", ErrInvalidGrid, c, x, y)
			}
			g[y][x] = c
		}
	}
	return g, nil
}

// Placeholder is served when a level has no initial grid.
func Placeholder() Grid {
	var g Grid
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			g[y][x] = (x + y) % (MaxColor + 1)
		}
	}
	return g
}

// Fill returns a grid with every cell set to c.
func Fill(c int) Grid {
	var g Grid
	for y := range g {
		for x := range g[y] {
			g[y][x] = c
		}
	}
	return g
}

// Rows converts the grid into nested slices (for storage encoders).
func (g *Grid) Rows() [][]int {
	out := make([][]int, GridSize)
	for y := range g {
		row := make([]int, GridSize)
		copy(row, g[y][:])
		out[y] = row
	}
	return out
}

// Matches counts cells equal to the corresponding cell of ref.
func (g *Grid) Matches(ref *Grid) int {
	n := 0
	for y := range g {
		for x := range g[y] {
			if g[y][x] == ref[y][x] {
				n++
			}
		}
	}
	return n
}

// FillRegion sets every cell of r to c.
func (g *Grid) FillRegion(r Region, c int) {
	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			g[y][x] = c
		}
	}
}

// RegionIs reports whether every cell of r holds color c.
func (g *Grid) RegionIs(r Region, c int) bool {
	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			if g[y][x] != c {
				return false
			}
		}
	}
	return true
}
