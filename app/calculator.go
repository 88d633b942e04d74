package app

import (
	"fmt"

	"esgdash/domain/metric"
	"esgdash/domain/scenario"
	"esgdash/domain/table"
	"esgdash/internal"
	"esgdash/internal/metrics"
)

// Calculator adds a rule's derived column to a table
type Calculator struct {
	metrics *metrics.Collectors
	logger  *internal.Logger
}

// NewCalculator creates a calculator
func NewCalculator(m *metrics.Collectors, logger *internal.Logger) *Calculator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Calculator{metrics: m, logger: logger}
}

// Apply computes rule.Output on a copy of t. When any input column is
// absent the output is rule.Default on every row and the result is degraded.
// Applying the same rule twice yields the same table.
func (c *Calculator) Apply(t *table.Table, rule metric.Rule) metric.Result {
	result := evaluate(t.Clone(), rule, scenario.Overrides{})
	c.metrics.ObserveRule(rule.Name, "apply")
	report(c.logger, c.metrics, "Calculator", result.Diagnostics)
	return result
}

// Adjuster recomputes a rule with per-row replacement values
type Adjuster struct {
	metrics *metrics.Collectors
	logger  *internal.Logger
}

// NewAdjuster creates an adjuster
func NewAdjuster(m *metrics.Collectors, logger *internal.Logger) *Adjuster {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Adjuster{metrics: m, logger: logger}
}

// Adjust substitutes the override values into a copy of t and recomputes the
// rule with the same evaluation the calculator uses. t is never modified.
// Callers clamp override values; Adjust takes them as given.
func (a *Adjuster) Adjust(t *table.Table, overrides scenario.Overrides, rule metric.Rule) metric.Result {
	result := evaluate(t.Clone(), rule, overrides)
	a.metrics.ObserveRule(rule.Name, "adjust")
	report(a.logger, a.metrics, "Adjuster", result.Diagnostics)
	return result
}

// evaluate writes overrides and then rule.Output into t, which the caller owns
func evaluate(t *table.Table, rule metric.Rule, overrides scenario.Overrides) metric.Result {
	if err := rule.Validate(); err != nil {
		return metric.Degraded(t, nil, metric.Diagnostic{
			Kind: metric.InvalidInput, Source: t.Name, Row: -1, Message: err.Error(),
		})
	}

	var diags []metric.Diagnostic
	if overrides.Len() > 0 {
		diags = append(diags, substitute(t, rule, overrides)...)
	}

	var missing []string
	for _, in := range rule.Inputs {
		if !t.HasColumn(in) {
			missing = append(missing, in)
		}
	}
	if len(missing) > 0 {
		t.AddColumn(rule.Output)
		for i := 0; i < t.Len(); i++ {
			t.Set(i, rule.Output, table.Number(rule.Default))
		}
		for _, col := range missing {
			diags = append(diags, metric.Diagnostic{
				Kind:    metric.ColumnMissing,
				Source:  t.Name,
				Column:  col,
				Row:     -1,
				Message: fmt.Sprintf("input of %s not found, %s set to %g", rule.Name, rule.Output, rule.Default),
			})
		}
		return metric.Degraded(t, missing, diags...)
	}

	t.AddColumn(rule.Output)
	operands := make([]float64, len(rule.Inputs))
	for i := 0; i < t.Len(); i++ {
		for j, in := range rule.Inputs {
			v := t.Value(i, in)
			f, ok := Numeric(v)
			if !ok {
				f = 0
				diags = append(diags, metric.Diagnostic{
					Kind:    metric.NonNumeric,
					Source:  t.Name,
					Column:  in,
					Row:     i,
					Message: fmt.Sprintf("value %q is not numeric, counted as 0", v.String()),
				})
			}
			operands[j] = f
		}
		t.Set(i, rule.Output, table.Number(rule.Combine(operands)))
	}

	if len(diags) > 0 {
		return metric.Degraded(t, nil, diags...)
	}
	return metric.OK(t)
}

// substitute writes override values into their column. Values equal to the
// current cell keep the original cell so its source text survives.
func substitute(t *table.Table, rule metric.Rule, overrides scenario.Overrides) []metric.Diagnostic {
	if !rule.HasInput(overrides.Column) {
		return []metric.Diagnostic{{
			Kind:    metric.InvalidInput,
			Source:  t.Name,
			Column:  overrides.Column,
			Row:     -1,
			Message: fmt.Sprintf("%s is not an input of %s, overrides ignored", overrides.Column, rule.Name),
		}}
	}

	if !t.HasColumn(overrides.Column) {
		return nil
	}

	var diags []metric.Diagnostic
	for _, row := range overrides.Rows() {
		if row < 0 || row >= t.Len() {
			diags = append(diags, metric.Diagnostic{
				Kind:    metric.InvalidInput,
				Source:  t.Name,
				Column:  overrides.Column,
				Row:     row,
				Message: fmt.Sprintf("row out of range (table has %d rows), override ignored", t.Len()),
			})
			continue
		}
		v, _ := overrides.Get(row)
		if cur, ok := Numeric(t.Value(row, overrides.Column)); ok && cur == v {
			continue
		}
		t.Set(row, overrides.Column, table.Number(v))
	}
	return diags
}

func report(logger *internal.Logger, m *metrics.Collectors, component string, diags []metric.Diagnostic) {
	for _, d := range diags {
		logger.Warn("[%s] %s", component, d)
		m.ObserveDiagnostic(string(d.Kind))
	}
}
