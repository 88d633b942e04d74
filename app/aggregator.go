package app

import (
	"esgdash/adapters/coercer"
	"esgdash/domain/table"
	"esgdash/internal/profiling"

	"gonum.org/v1/gonum/floats"
)

// GroupCounts maps group keys to row counts, remembering first-seen order
type GroupCounts struct {
	Keys   []string       `json:"keys"`
	Counts map[string]int `json:"counts"`
}

// Len returns the number of groups
func (g GroupCounts) Len() int { return len(g.Keys) }

// Values returns the counts in key order
func (g GroupCounts) Values() []float64 {
	out := make([]float64, len(g.Keys))
	for i, k := range g.Keys {
		out[i] = float64(g.Counts[k])
	}
	return out
}

// GroupSums maps group keys to summed values in first-seen order
type GroupSums struct {
	Keys []string           `json:"keys"`
	Sums map[string]float64 `json:"sums"`
}

// Values returns the sums in key order
func (g GroupSums) Values() []float64 {
	out := make([]float64, len(g.Keys))
	for i, k := range g.Keys {
		out[i] = g.Sums[k]
	}
	return out
}

var numbers = coercer.Default()

// Numeric returns the number held by v. Text cells from sources without a
// schema are parsed here, so untyped columns still calculate.
func Numeric(v table.Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, true
	}
	if v.Kind == table.KindString {
		return numbers.Number(v.Str)
	}
	return 0, false
}

// Numbers returns the numeric content of a column in row order. Non-numeric
// and missing cells count as 0.
func Numbers(t *table.Table, col string) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		if f, ok := Numeric(t.Value(i, col)); ok {
			out[i] = f
		}
	}
	return out
}

// SumColumn adds up a numeric column; an empty table or absent column sums to 0
func SumColumn(t *table.Table, col string) float64 {
	if t.IsEmpty() || !t.HasColumn(col) {
		return 0
	}
	return floats.Sum(Numbers(t, col))
}

// GroupCount counts rows per distinct value of col. Missing values are
// grouped under the empty string.
func GroupCount(t *table.Table, col string) GroupCounts {
	g := GroupCounts{Counts: make(map[string]int)}
	for i := 0; i < t.Len(); i++ {
		key := t.Value(i, col).String()
		if _, seen := g.Counts[key]; !seen {
			g.Keys = append(g.Keys, key)
		}
		g.Counts[key]++
	}
	return g
}

// SumBy adds up valueCol per distinct value of groupCol
func SumBy(t *table.Table, groupCol, valueCol string) GroupSums {
	g := GroupSums{Sums: make(map[string]float64)}
	values := Numbers(t, valueCol)
	for i := 0; i < t.Len(); i++ {
		key := t.Value(i, groupCol).String()
		if _, seen := g.Sums[key]; !seen {
			g.Keys = append(g.Keys, key)
		}
		g.Sums[key] += values[i]
	}
	return g
}

// Describe summarizes the numeric cells of a column, skipping the rest
func Describe(t *table.Table, col string) (profiling.Summary, error) {
	var data []float64
	for i := 0; i < t.Len(); i++ {
		if f, ok := Numeric(t.Value(i, col)); ok {
			data = append(data, f)
		}
	}
	return profiling.Describe(data)
}

// DropNonNumeric keeps the rows whose cells in every named column are numeric
func DropNonNumeric(t *table.Table, cols ...string) *table.Table {
	return t.Filter(func(_ int, r table.Row) bool {
		for _, c := range cols {
			if _, ok := Numeric(r[c]); !ok {
				return false
			}
		}
		return true
	})
}
