package app

import (
	"strings"

	"esgdash/adapters/export"
	"esgdash/domain/table"
	"esgdash/internal/config"

	"gonum.org/v1/plot/plotter"
)

// BuildChart prepares the drawing data for one chart of a dataset page.
// Bar and pie charts without y columns count rows per x value; scatter charts
// drop rows whose x or y is not numeric.
func BuildChart(t *table.Table, ch config.Chart) export.ChartData {
	data := export.ChartData{
		Kind:   ch.Kind,
		Title:  ch.Title,
		XLabel: label(ch.X),
	}

	switch {
	case ch.Kind == config.ChartScatter:
		y := ch.Y[0]
		data.YLabel = label(y)
		kept := DropNonNumeric(t, ch.X, y)
		xs, ys := Numbers(kept, ch.X), Numbers(kept, y)
		data.Points = make(plotter.XYs, len(xs))
		for i := range xs {
			data.Points[i].X, data.Points[i].Y = xs[i], ys[i]
		}

	case len(ch.Y) == 0:
		counts := GroupCount(t, ch.X)
		data.YLabel = "Count"
		data.Categories = counts.Keys
		data.Series = []export.Series{{Name: "Count", Values: counts.Values()}}

	case ch.Kind == config.ChartPie:
		sums := SumBy(t, ch.X, ch.Y[0])
		data.YLabel = label(ch.Y[0])
		data.Categories = sums.Keys
		data.Series = []export.Series{{Name: ch.Y[0], Values: sums.Values()}}

	default:
		data.Categories = make([]string, t.Len())
		for i := range data.Categories {
			data.Categories[i] = t.Value(i, ch.X).String()
		}
		if len(ch.Y) == 1 {
			data.YLabel = label(ch.Y[0])
		}
		for _, y := range ch.Y {
			data.Series = append(data.Series, export.Series{Name: label(y), Values: Numbers(t, y)})
		}
	}
	return data
}

// label turns a column name into axis text: "Financial_Impact" -> "Financial Impact"
func label(col string) string {
	return strings.ReplaceAll(col, "_", " ")
}
