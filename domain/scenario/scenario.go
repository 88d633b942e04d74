// Package scenario holds what-if overrides. Overrides live for one evaluation
// and are never written back to the loaded table.
package scenario

import (
	"math"
	"sort"
)

// Overrides replaces values of one column for selected rows
type Overrides struct {
	Column string
	Values map[int]float64
}

// New creates an empty override set for column
func New(column string) Overrides {
	return Overrides{Column: column, Values: make(map[int]float64)}
}

// Set records the replacement value for a row
func (o *Overrides) Set(row int, v float64) {
	if o.Values == nil {
		o.Values = make(map[int]float64)
	}
	o.Values[row] = v
}

// Get returns the replacement value for a row
func (o Overrides) Get(row int) (float64, bool) {
	v, ok := o.Values[row]
	return v, ok
}

// Len returns the number of overridden rows
func (o Overrides) Len() int { return len(o.Values) }

// Rows returns overridden row indexes in ascending order
func (o Overrides) Rows() []int {
	rows := make([]int, 0, len(o.Values))
	for r := range o.Values {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	return rows
}

// Bound limits an override relative to the original value
type Bound struct {
	MinFactor float64 `yaml:"min_factor" json:"min_factor"`
	MaxFactor float64 `yaml:"max_factor" json:"max_factor"`
}

// DefaultBound allows 0 to twice the original value
func DefaultBound() Bound {
	return Bound{MinFactor: 0, MaxFactor: 2}
}

// Range returns the allowed interval for an original value. Negative
// originals flip the factors so lo <= hi always holds.
func (b Bound) Range(original float64) (lo, hi float64) {
	lo, hi = original*b.MinFactor, original*b.MaxFactor
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Clamp forces v into the allowed interval for original
func (b Bound) Clamp(original, v float64) float64 {
	if math.IsNaN(v) {
		return original
	}
	lo, hi := b.Range(original)
	return math.Min(math.Max(v, lo), hi)
}
