package app

import (
	"testing"

	"esgdash/domain/metric"
	"esgdash/domain/table"
	"esgdash/internal/config"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusTable(col string, statuses ...string) *table.Table {
	t := table.New("compliance_tracker", col)
	for _, s := range statuses {
		t.Append(table.Row{col: table.String(s)})
	}
	return t
}

func TestGroupCountKeepsFirstSeenOrder(t *testing.T) {
	got := GroupCount(statusTable("Compliance_Status", "Compliant", "In Progress", "Compliant"), "Compliance_Status")

	want := GroupCounts{
		Keys:   []string{"Compliant", "In Progress"},
		Counts: map[string]int{"Compliant": 2, "In Progress": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupCount mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{2, 1}, got.Values())
}

func TestGroupCountMissingValues(t *testing.T) {
	got := GroupCount(statusTable("Status", "Planned", "", "Planned"), "Status")
	assert.Equal(t, []string{"Planned", ""}, got.Keys)
	assert.Equal(t, 1, got.Counts[""])
	assert.Equal(t, 0, GroupCount(table.Empty("x"), "Status").Len())
}

func TestSumColumn(t *testing.T) {
	tests := []struct {
		name     string
		table    *table.Table
		column   string
		expected float64
	}{
		{"empty table", table.New("risk_data", "Severity"), "Severity", 0},
		{"absent column", riskTable(), "Financial_Impact", 0},
		{"numeric column", riskTable(), "Severity", 1500000},
		{"text column counts zero", riskTable(), "Subcategory", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SumColumn(tt.table, tt.column))
		})
	}
}

func TestSumBy(t *testing.T) {
	tbl := riskTable()
	tbl.Append(table.Row{"Subcategory": table.String("Carbon Tax"), "Risk_Category": table.String("Transition"), "Severity": table.Number(10)})

	got := SumBy(tbl, "Risk_Category", "Severity")
	assert.Equal(t, []string{"Physical", "Transition"}, got.Keys)
	assert.Equal(t, []float64{1500000, 10}, got.Values())
}

func TestDescribeColumn(t *testing.T) {
	s, err := Describe(riskTable(), "Probability")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 0.15, s.Mean, 1e-9)
}

func TestDropNonNumeric(t *testing.T) {
	tbl := table.New("scenario_data", "Scenario", "Investment_USD", "Estimated_Carbon_Reduction_tons")
	tbl.Append(table.Row{"Scenario": table.String("Solar"), "Investment_USD": table.Number(1e6), "Estimated_Carbon_Reduction_tons": table.Number(500)})
	tbl.Append(table.Row{"Scenario": table.String("Wind"), "Investment_USD": table.Number(2e6), "Estimated_Carbon_Reduction_tons": table.String("TBD")})
	tbl.Append(table.Row{"Scenario": table.String("Retrofit"), "Investment_USD": table.Missing(), "Estimated_Carbon_Reduction_tons": table.Number(50)})

	kept := DropNonNumeric(tbl, "Investment_USD", "Estimated_Carbon_Reduction_tons")

	require.Equal(t, 1, kept.Len())
	assert.Equal(t, "Solar", kept.Value(0, "Scenario").String())
	assert.Equal(t, 3, tbl.Len())
}

func TestBuildChart(t *testing.T) {
	tasks := table.New("esg_tasks", "Task", "Responsible")
	for _, r := range []string{"Finance", "Legal", "Finance"} {
		tasks.Append(table.Row{"Task": table.String("t"), "Responsible": table.String(r)})
	}
	counts := BuildChart(tasks, config.Chart{Kind: config.ChartBar, X: "Responsible"})
	assert.Equal(t, []string{"Finance", "Legal"}, counts.Categories)
	assert.Equal(t, []float64{2, 1}, counts.Series[0].Values)

	risk := NewCalculator(nil, nil).Apply(riskTable(), metric.FinancialImpact()).Table
	bars := BuildChart(risk, config.Chart{Kind: config.ChartBar, X: "Subcategory", Y: []string{"Financial_Impact"}})
	assert.Equal(t, []string{"Flood", "Drought"}, bars.Categories)
	assert.Equal(t, "Financial Impact", bars.YLabel)
	assert.Equal(t, []float64{200000, 50000}, bars.Series[0].Values)

	pie := BuildChart(risk, config.Chart{Kind: config.ChartPie, X: "Risk_Category", Y: []string{"Financial_Impact"}})
	assert.Equal(t, []string{"Physical"}, pie.Categories)
	assert.Equal(t, []float64{250000}, pie.Series[0].Values)

	scatter := BuildChart(risk, config.Chart{Kind: config.ChartScatter, X: "Probability", Y: []string{"Severity"}})
	require.Len(t, scatter.Points, 2)
	assert.Equal(t, 0.2, scatter.Points[0].X)
	assert.Equal(t, 1000000.0, scatter.Points[0].Y)
}
