package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"esgdash/adapters/coercer"
	"esgdash/domain/metric"
	"esgdash/domain/scenario"
	"esgdash/domain/table"
	"esgdash/internal/config"
)

// OverridesFromForm turns caller input into clamped overrides for the
// dataset's adjustable column. Keys are row indexes or, when the dataset has
// a label column, row labels such as "Flood". Blank values are skipped.
func OverridesFromForm(t *table.Table, ds config.Dataset, values map[string]string) (scenario.Overrides, []metric.Diagnostic) {
	if ds.Adjust == nil {
		if len(values) == 0 {
			return scenario.Overrides{}, nil
		}
		return scenario.Overrides{}, []metric.Diagnostic{{
			Kind: metric.InvalidInput, Source: ds.Name, Row: -1, Message: "dataset has no adjustable column",
		}}
	}

	bound := ds.Adjust.Bound()
	num := coercer.Default()
	overrides := scenario.New(ds.Adjust.Column)
	var diags []metric.Diagnostic

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := strings.TrimSpace(values[key])
		if raw == "" {
			continue
		}
		row, ok := ResolveRow(t, ds.Label, key)
		if !ok {
			diags = append(diags, metric.Diagnostic{
				Kind: metric.InvalidInput, Source: ds.Name, Column: ds.Adjust.Column, Row: -1,
				Message: fmt.Sprintf("unknown row %q", key),
			})
			continue
		}
		v, ok := num.Number(raw)
		if !ok {
			diags = append(diags, metric.Diagnostic{
				Kind: metric.InvalidInput, Source: ds.Name, Column: ds.Adjust.Column, Row: row,
				Message: fmt.Sprintf("override %q is not a number", raw),
			})
			continue
		}
		original, _ := Numeric(t.Value(row, ds.Adjust.Column))
		overrides.Set(row, bound.Clamp(original, v))
	}
	return overrides, diags
}

// ResolveRow maps a row index or a label value to a row index
func ResolveRow(t *table.Table, labelCol, key string) (int, bool) {
	key = strings.TrimSpace(key)
	if i, err := strconv.Atoi(key); err == nil {
		return i, i >= 0 && i < t.Len()
	}
	if labelCol == "" {
		return -1, false
	}
	i := t.Find(labelCol, key)
	return i, i >= 0
}

// SliderRange returns the clamped range, step and current value of the
// adjustable column for one row, for rendering form inputs
func SliderRange(t *table.Table, adj *config.Adjust, row int) (lo, hi, step, value float64) {
	if adj == nil {
		return 0, 0, 0, 0
	}
	value, _ = Numeric(t.Value(row, adj.Column))
	lo, hi = adj.Bound().Range(value)
	step = adj.Step
	if step <= 0 {
		step = 1
	}
	return lo, hi, step, value
}
