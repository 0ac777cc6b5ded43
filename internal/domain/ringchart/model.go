package ringchart

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors
var (
	ErrEmptyCategory     = errors.New("category name cannot be empty")
	ErrNegativeCount     = errors.New("category count cannot be negative")
	ErrDuplicateCategory = errors.New("category is declared more than once")
	ErrMissingColor      = errors.New("category has no assigned color")
	ErrInvalidCount      = errors.New("category count must be finite")
)

// CategoryCount is the quantity contributed by one named category.
type CategoryCount struct {
	Category string
	Count    float64
}

// Dataset is an ordered list of category counts plus a category -> color assignment.
// Declaration order of Counts is the order segments are laid out in.
type Dataset struct {
	Counts []CategoryCount
	Colors map[string]string // hex colour per category, e.g. "#2980b9"
}

// NewDataset builds a validated dataset.
// PRE: colors covers every category in counts
// POST: Returns the dataset or the first validation error
func NewDataset(colors map[string]string, counts ...CategoryCount) (Dataset, error) {
	ds := Dataset{Counts: counts, Colors: colors}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Validate checks the dataset invariants.
// PRE: none
// POST: Returns nil if counts are finite and non-negative, their sum is finite,
// and categories are unique and fully coloured
func (d Dataset) Validate() error {
	seen := make(map[string]bool, len(d.Counts))
	total := 0.0
	for _, c := range d.Counts {
		if c.Category == "" {
			return ErrEmptyCategory
		}
		if math.IsNaN(c.Count) || math.IsInf(c.Count, 0) {
			return fmt.Errorf("%s: %w", c.Category, ErrInvalidCount)
		}
		if c.Count < 0 {
			return fmt.Errorf("%s: %w", c.Category, ErrNegativeCount)
		}
		if total += c.Count; math.IsInf(total, 0) {
			return fmt.Errorf("%s: total overflows: %w", c.Category, ErrInvalidCount)
		}
		if seen[c.Category] {
			return fmt.Errorf("%s: %w", c.Category, ErrDuplicateCategory)
		}
		seen[c.Category] = true
		if _, ok := d.Colors[c.Category]; !ok {
			return fmt.Errorf("%s: %w", c.Category, ErrMissingColor)
		}
	}
	return nil
}

// Total returns the sum of all positive counts.
func (d Dataset) Total() float64 {
	total := 0.0
	for _, c := range d.Counts {
		if c.Count > 0 {
			total += c.Count
		}
	}
	return total
}

// Count returns the count for a category, or 0 if it is not declared.
func (d Dataset) Count(category string) float64 {
	for _, c := range d.Counts {
		if c.Category == category {
			return c.Count
		}
	}
	return 0
}

// Point is a position in canvas-buffer pixel coordinates.
type Point struct {
	X, Y float64
}

// Segment is one rendered wedge. It is a snapshot taken at render time
// and is never mutated afterwards.
type Segment struct {
	Category   string
	Value      float64
	Percentage float64 // rounded to one decimal
	StartAngle float64 // radians, screen coordinates (y down, clockwise)
	EndAngle   float64
	Color      string
	Center     Point
	Radius     float64
}

// Sweep returns the angular size of the segment in radians.
func (s Segment) Sweep() float64 {
	return s.EndAngle - s.StartAngle
}

// MidAngle returns the angle halfway through the segment.
func (s Segment) MidAngle() float64 {
	return s.StartAngle + s.Sweep()/2
}
