package app

import (
	"context"
	"fmt"
	"strings"

	"esgdash/adapters/export"
	"esgdash/domain/metric"
	"esgdash/domain/scenario"
	"esgdash/domain/table"
	"esgdash/internal"
	"esgdash/internal/config"
	"esgdash/internal/profiling"

	"github.com/dustin/go-humanize"
)

// Pipeline runs load, derive, adjust and aggregate for one dataset page.
// Each Run works on its own tables; nothing is shared between runs.
type Pipeline struct {
	loader     *Loader
	calculator *Calculator
	adjuster   *Adjuster
	logger     *internal.Logger
}

// NewPipeline wires the pipeline stages
func NewPipeline(loader *Loader, calculator *Calculator, adjuster *Adjuster, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{loader: loader, calculator: calculator, adjuster: adjuster, logger: logger}
}

// PageResult is everything a dataset page, download or CLI command shows
type PageResult struct {
	Dataset       config.Dataset      `json:"dataset"`
	Base          metric.Result       `json:"base"`
	Adjusted      *metric.Result      `json:"adjusted,omitempty"`
	Adjustable    bool                `json:"adjustable"`
	Total         float64             `json:"total"`
	AdjustedTotal float64             `json:"adjusted_total"`
	Groups        GroupCounts         `json:"groups"`
	Summary       profiling.Summary   `json:"summary"`
	Diagnostics   []metric.Diagnostic `json:"diagnostics,omitempty"`
	Status        metric.Status       `json:"status"`
}

// Table returns the computed table
func (r *PageResult) Table() *table.Table { return r.Base.Table }

// AdjustedTable returns the adjusted table, or the computed one when no
// overrides were given
func (r *PageResult) AdjustedTable() *table.Table {
	if r.Adjusted != nil {
		return r.Adjusted.Table
	}
	return r.Base.Table
}

// Empty reports whether the page has no data to show
func (r *PageResult) Empty() bool { return r.Base.Empty() }

// Run executes the pipeline. A nil or empty overrides skips adjustment.
func (p *Pipeline) Run(ctx context.Context, name string, overrides *scenario.Overrides) *PageResult {
	res := p.run(ctx, name)
	if overrides != nil {
		p.adjust(res, *overrides, nil)
	}
	return res
}

// RunForm executes the pipeline with caller form values. Values are keyed
// by row index or row label and clamped to the dataset's adjust bound.
func (p *Pipeline) RunForm(ctx context.Context, name string, values map[string]string) *PageResult {
	res := p.run(ctx, name)
	if res.Empty() || len(values) == 0 {
		return res
	}
	overrides, diags := OverridesFromForm(res.Table(), res.Dataset, values)
	for _, d := range diags {
		p.logger.Warn("[Pipeline] %s", d)
	}
	p.adjust(res, overrides, diags)
	return res
}

func (p *Pipeline) run(ctx context.Context, name string) *PageResult {
	ds := p.loader.Dataset(name)
	loaded := p.loader.Load(ctx, name)

	res := &PageResult{
		Dataset:    ds,
		Base:       loaded,
		Adjustable: ds.Adjust != nil && ds.Rule != nil,
	}
	if loaded.Empty() {
		res.Status = metric.StatusEmpty
		res.Diagnostics = loaded.Diagnostics
		return res
	}

	if ds.Rule != nil {
		rule := *ds.Rule
		res.Base = p.calculator.Apply(loaded.Table, rule).Merge(loaded)
		res.Total = SumColumn(res.Base.Table, rule.Output)
		res.AdjustedTotal = res.Total
		summary, err := Describe(res.Base.Table, rule.Output)
		if err != nil {
			p.logger.Warn("[Pipeline] %s: describe %s failed: %v", ds.Name, rule.Output, err)
		}
		res.Summary = summary
	}

	if ds.GroupBy != "" {
		if res.Base.Table.HasColumn(ds.GroupBy) {
			res.Groups = GroupCount(res.Base.Table, ds.GroupBy)
		} else {
			d := metric.Diagnostic{
				Kind: metric.ColumnMissing, Source: ds.Name, Column: ds.GroupBy, Row: -1,
				Message: "group column not found",
			}
			p.logger.Warn("[Pipeline] %s", d)
			res.Base.Diagnostics = append(res.Base.Diagnostics, d)
			res.Base.Missing = append(res.Base.Missing, ds.GroupBy)
			res.Base.Status = metric.StatusDegraded
		}
	}

	res.Diagnostics = append([]metric.Diagnostic(nil), res.Base.Diagnostics...)
	res.refreshStatus()
	return res
}

// adjust recomputes the rule on a copy of the computed table with overrides
// substituted. The computed table itself is left as is.
func (p *Pipeline) adjust(res *PageResult, overrides scenario.Overrides, extra []metric.Diagnostic) {
	if !res.Empty() && res.Adjustable && overrides.Len() > 0 {
		adjusted := p.adjuster.Adjust(res.Base.Table, overrides, *res.Dataset.Rule).Merge(res.Base)
		res.Adjusted = &adjusted
		res.AdjustedTotal = SumColumn(adjusted.Table, res.Dataset.Rule.Output)
		res.Diagnostics = appendNew(res.Diagnostics, adjusted.Diagnostics)
	}
	res.Diagnostics = appendNew(res.Diagnostics, extra)
	res.refreshStatus()
}

func (r *PageResult) refreshStatus() {
	if r.Base.Empty() {
		r.Status = metric.StatusEmpty
		return
	}
	r.Status = r.Base.Status
	if r.Status == metric.StatusOK && len(r.Diagnostics) > 0 {
		r.Status = metric.StatusDegraded
	}
}

// Chart builds chart i of the dataset from the computed or adjusted table
func (r *PageResult) Chart(i int) (export.ChartData, error) {
	if i < 0 || i >= len(r.Dataset.Charts) {
		return export.ChartData{}, fmt.Errorf("dataset %s has no chart %d", r.Dataset.Name, i)
	}
	ch := r.Dataset.Charts[i]
	t := r.Base.Table
	if ch.Adjusted {
		t = r.AdjustedTable()
	}
	return BuildChart(t, ch), nil
}

// SummaryLines renders the headline numbers of the page as plain text
func (r *PageResult) SummaryLines() []string {
	if r.Empty() {
		return []string{fmt.Sprintf("No %s data available.", r.Dataset.Title)}
	}
	var lines []string
	if rule := r.Dataset.Rule; rule != nil {
		name := label(rule.Output)
		if rule.Combinator == metric.Percent {
			lines = append(lines, fmt.Sprintf("Average %s: %s%%", name, humanize.FormatFloat("#,###.##", r.Summary.Mean)))
		} else {
			lines = append(lines, fmt.Sprintf("Total %s: %s", name, export.Money(r.Total)))
			if r.Adjustable {
				lines = append(lines, fmt.Sprintf("Adjusted Total %s: %s", name, export.Money(r.AdjustedTotal)))
			}
		}
	} else {
		lines = append(lines, fmt.Sprintf("Rows: %d", r.Base.Table.Len()))
	}
	for _, k := range r.Groups.Keys {
		key := k
		if key == "" {
			key = "(blank)"
		}
		lines = append(lines, fmt.Sprintf("%s: %d", key, r.Groups.Counts[k]))
	}
	return lines
}

// SummaryText joins SummaryLines with newlines
func (r *PageResult) SummaryText() string {
	return strings.Join(r.SummaryLines(), "\n")
}

func appendNew(dst, src []metric.Diagnostic) []metric.Diagnostic {
	seen := make(map[metric.Diagnostic]bool, len(dst))
	for _, d := range dst {
		seen[d] = true
	}
	for _, d := range src {
		if !seen[d] {
			dst = append(dst, d)
			seen[d] = true
		}
	}
	return dst
}
