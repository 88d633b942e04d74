package export

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"esgdash/internal/config"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series is one named list of values aligned with ChartData.Categories
type Series struct {
	Name   string
	Values []float64
}

// ChartData is a chart ready to draw. Bar, grouped and pie charts use
// Categories and Series; scatter charts use Points.
type ChartData struct {
	Kind       config.ChartKind
	Title      string
	XLabel     string
	YLabel     string
	Categories []string
	Series     []Series
	Points     plotter.XYs
}

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
	barWidth    = 18 * vg.Length(1)
)

// PNGChart renders charts as PNG images colored from the theme
type PNGChart struct {
	theme *config.Theme
}

// NewPNGChart creates a renderer; a nil theme uses the default palette
func NewPNGChart(theme *config.Theme) *PNGChart {
	if theme == nil {
		theme = config.DefaultTheme()
	}
	return &PNGChart{theme: theme}
}

// ContentType of rendered charts
func (c *PNGChart) ContentType() string { return "image/png" }

// Render draws data and writes the PNG to w
func (c *PNGChart) Render(w io.Writer, data ChartData) error {
	p := plot.New()
	p.Title.Text = data.Title
	p.X.Label.Text = data.XLabel
	p.Y.Label.Text = data.YLabel

	var err error
	switch data.Kind {
	case config.ChartScatter:
		err = c.scatter(p, data)
	case config.ChartPie:
		err = c.shares(p, data)
	default:
		err = c.bars(p, data)
	}
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func (c *PNGChart) bars(p *plot.Plot, data ChartData) error {
	if len(data.Categories) == 0 {
		return nil
	}
	palette := []string{c.theme.Primary, c.theme.Muted, c.theme.Success, c.theme.Warning, c.theme.Error}
	n := len(data.Series)
	for i, s := range data.Series {
		if len(s.Values) == 0 {
			continue
		}
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
		if err != nil {
			return fmt.Errorf("failed to build series %s: %w", s.Name, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = ParseHex(palette[i%len(palette)])
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * barWidth
		p.Add(bars)
		if n > 1 {
			p.Legend.Add(s.Name, bars)
		}
	}
	p.Legend.Top = true
	p.NominalX(data.Categories...)
	return nil
}

// shares draws a pie chart as one bar per category holding its percentage
// share, colored by the theme status map
func (c *PNGChart) shares(p *plot.Plot, data ChartData) error {
	if len(data.Series) == 0 || len(data.Categories) == 0 {
		return nil
	}
	values := data.Series[0].Values
	total := 0.0
	for _, v := range values {
		total += v
	}
	for i, category := range data.Categories {
		share := make(plotter.Values, len(data.Categories))
		if total != 0 && i < len(values) {
			share[i] = values[i] / total * 100
		}
		bars, err := plotter.NewBarChart(share, barWidth*2)
		if err != nil {
			return fmt.Errorf("failed to build share for %s: %w", category, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = ParseHex(c.theme.StatusColor(category))
		p.Add(bars)
	}
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "Share (%)"
	}
	p.NominalX(data.Categories...)
	return nil
}

func (c *PNGChart) scatter(p *plot.Plot, data ChartData) error {
	if len(data.Points) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(data.Points)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	s.GlyphStyle.Color = ParseHex(c.theme.Primary)
	s.GlyphStyle.Radius = vg.Points(4)
	p.Add(s, plotter.NewGrid())
	return nil
}

// ParseHex converts "#rrggbb" or "#rgb" to a color, black when malformed
func ParseHex(hex string) color.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
