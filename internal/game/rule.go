// internal/game/rule.go
//
// Declarative per-game rule descriptors.
// A descriptor lays out a rows x cols arrangement of square regions and names
// which of them are clickable and which must be in the "on" color to win.
// Games without a descriptor are scored by the generic cell-match rule.

package game

import "fmt"

// RuleKindRegionToggle is the only descriptor kind understood today.
const RuleKindRegionToggle = "region_toggle"

// Region is an inclusive rectangle of cells.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Contains reports whether p lies within r.
func (r Region) Contains(p Point) bool {
	return r.X1 <= p.X && p.X <= r.X2 && r.Y1 <= p.Y && p.Y <= r.Y2
}

// ToggleColors is the color pair a region flips between.
type ToggleColors struct {
	On  int `yaml:"on" json:"on"`
	Off int `yaml:"off" json:"off"`
}

// RuleDescriptor is the stored form of a region toggle rule.
// Regions are numbered 1..rows*cols in row-major order.
type RuleDescriptor struct {
	Kind    string       `yaml:"kind"`
	Origin  Point        `yaml:"origin"`
	Size    int          `yaml:"size"`
	Gap     int          `yaml:"gap"`
	Rows    int          `yaml:"rows"`
	Cols    int          `yaml:"cols"`
	Exclude []int        `yaml:"exclude,omitempty"`
	Colors  ToggleColors `yaml:"colors"`
	Win     []int        `yaml:"win"`
}

// ToggleRule is a compiled region toggle rule.
type ToggleRule struct {
	Regions []Region // clickable regions
	Win     []Region // regions that must all be Colors.On
	Colors  ToggleColors
}

// Compile validates d and lays out its regions.
func (d RuleDescriptor) Compile() (*ToggleRule, error) {
	if d.Kind != RuleKindRegionToggle {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidRule, d.Kind)
	}
	if d.Size <= 0 || d.Gap < 0 || d.Rows <= 0 || d.Cols <= 0 {
		return nil, fmt.Errorf("%w: size, rows and cols must be positive", ErrInvalidRule)
	}
	if !paletteColor(d.Colors.On) || !paletteColor(d.Colors.Off) || d.Colors.On == d.Colors.Off {
		return nil, fmt.Errorf("%w: colors %d/%d", ErrInvalidRule, d.Colors.On, d.Colors.Off)
	}
	if len(d.Win) == 0 {
		return nil, fmt.Errorf("%w: no winning regions", ErrInvalidRule)
	}

	excluded := make(map[int]bool, len(d.Exclude))
	for _, n := range d.Exclude {
		excluded[n] = true
	}

	rule := &ToggleRule{Colors: d.Colors}
	byIndex := make(map[int]Region)
	index := 0
	for row := 0; row < d.Rows; row++ {
		for col := 0; col < d.Cols; col++ {
			index++
			if excluded[index] {
				continue
			}
			x1 := d.Origin.X + col*(d.Size+d.Gap)
			y1 := d.Origin.Y + row*(d.Size+d.Gap)
			r := Region{X1: x1, Y1: y1, X2: x1 + d.Size - 1, Y2: y1 + d.Size - 1}
			if !(Point{r.X1, r.Y1}).InBounds() || !(Point{r.X2, r.Y2}).InBounds() {
				return nil, fmt.Errorf("%w: region %d out of grid", ErrInvalidRule, index)
			}
			byIndex[index] = r
			rule.Regions = append(rule.Regions, r)
		}
	}

	for _, n := range d.Win {
		r, ok := byIndex[n]
		if !ok {
			return nil, fmt.Errorf("%w: winning region %d is not active", ErrInvalidRule, n)
		}
		rule.Win = append(rule.Win, r)
	}
	return rule, nil
}

func paletteColor(c int) bool { return c >= 0 && c <= MaxColor }
