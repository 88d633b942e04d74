package config

import (
	_ "embed"
	"fmt"
	"os"

	"esgdash/domain/metric"
	"esgdash/domain/scenario"
	"esgdash/domain/schema"
	"esgdash/internal/errors"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ChartKind selects how a chart is drawn
type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartGrouped ChartKind = "grouped"
	ChartScatter ChartKind = "scatter"
	ChartPie     ChartKind = "pie"
)

// Catalog lists the datasets the dashboard serves and the shared theme
type Catalog struct {
	Theme    *Theme    `yaml:"theme"`
	Datasets []Dataset `yaml:"datasets"`
}

// Theme is the single color configuration injected into every page and chart
type Theme struct {
	Primary string            `yaml:"primary"`
	Success string            `yaml:"success"`
	Warning string            `yaml:"warning"`
	Error   string            `yaml:"error"`
	Muted   string            `yaml:"muted"`
	Status  map[string]string `yaml:"status"`
	Footer  string            `yaml:"footer"`
}

// Dataset binds a logical name to a source, schema, optional rule and charts
type Dataset struct {
	Name        string         `yaml:"name"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Source      string         `yaml:"source"`
	Label       string         `yaml:"label"`
	Fields      []schema.Field `yaml:"fields"`
	Rule        *metric.Rule   `yaml:"rule"`
	Adjust      *Adjust        `yaml:"adjust"`
	GroupBy     string         `yaml:"group_by"`
	Charts      []Chart        `yaml:"charts"`
}

// Adjust configures the what-if form of a dataset
type Adjust struct {
	Column    string  `yaml:"column"`
	MinFactor float64 `yaml:"min_factor"`
	MaxFactor float64 `yaml:"max_factor"`
	Step      float64 `yaml:"step"`
}

// Chart describes one chart snapshot. Bar and pie charts without Y count rows
// per X value.
type Chart struct {
	Kind     ChartKind `yaml:"kind"`
	Title    string    `yaml:"title"`
	X        string    `yaml:"x"`
	Y        []string  `yaml:"y"`
	Adjusted bool      `yaml:"adjusted"`
}

// DefaultTheme returns the stock dashboard palette
func DefaultTheme() *Theme {
	return &Theme{
		Primary: "#1f77b4",
		Success: "#2ca02c",
		Warning: "#ff7f0e",
		Error:   "#d62728",
		Muted:   "#d3d3d3",
		Status:  map[string]string{},
	}
}

// StatusColor returns the color configured for a status label, falling back
// to the primary color
func (t *Theme) StatusColor(status string) string {
	if c, ok := t.Status[status]; ok {
		return c
	}
	return t.Primary
}

// DefaultCatalog returns the built-in catalog of dashboard datasets
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) applyDefaults() {
	base := DefaultTheme()
	if c.Theme == nil {
		c.Theme = base
	}
	for _, pair := range []struct {
		dst *string
		def string
	}{
		{&c.Theme.Primary, base.Primary},
		{&c.Theme.Success, base.Success},
		{&c.Theme.Warning, base.Warning},
		{&c.Theme.Error, base.Error},
		{&c.Theme.Muted, base.Muted},
	} {
		if *pair.dst == "" {
			*pair.dst = pair.def
		}
	}
	if c.Theme.Status == nil {
		c.Theme.Status = map[string]string{}
	}
	for i := range c.Datasets {
		d := &c.Datasets[i]
		if d.Source == "" {
			d.Source = d.Name + ".csv"
		}
		if d.Title == "" {
			d.Title = d.Name
		}
		if d.Adjust != nil && d.Adjust.MaxFactor == 0 {
			b := scenario.DefaultBound()
			d.Adjust.MinFactor, d.Adjust.MaxFactor = b.MinFactor, b.MaxFactor
		}
	}
}

// Validate checks names, field types, rules, adjust columns and charts
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if d.Name == "" {
			return errors.ConfigInvalid("dataset name is required")
		}
		if seen[d.Name] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate dataset %q", d.Name))
		}
		seen[d.Name] = true

		for _, f := range d.Fields {
			if !f.Type.Valid() {
				return errors.ConfigInvalid(fmt.Sprintf("dataset %s: field %s has unknown type %q", d.Name, f.Name, f.Type))
			}
		}
		if d.Rule != nil {
			if err := d.Rule.Validate(); err != nil {
				return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("dataset %s: %w", d.Name, err))
			}
		}
		if d.Adjust != nil {
			if d.Rule == nil || !d.Rule.HasInput(d.Adjust.Column) {
				return errors.ConfigInvalid(fmt.Sprintf("dataset %s: adjust column %q must be a rule input", d.Name, d.Adjust.Column))
			}
			if d.Adjust.MinFactor > d.Adjust.MaxFactor {
				return errors.ConfigInvalid(fmt.Sprintf("dataset %s: min_factor exceeds max_factor", d.Name))
			}
		}
		for i, ch := range d.Charts {
			switch ch.Kind {
			case ChartBar, ChartGrouped, ChartScatter, ChartPie:
			default:
				return errors.ConfigInvalid(fmt.Sprintf("dataset %s: chart %d has unknown kind %q", d.Name, i, ch.Kind))
			}
			if ch.X == "" {
				return errors.ConfigInvalid(fmt.Sprintf("dataset %s: chart %d needs an x column", d.Name, i))
			}
			if ch.Kind == ChartScatter && len(ch.Y) != 1 {
				return errors.ConfigInvalid(fmt.Sprintf("dataset %s: scatter chart %d needs one y column", d.Name, i))
			}
		}
	}
	return nil
}

// Dataset looks up a dataset by name
func (c *Catalog) Dataset(name string) (Dataset, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

// Names returns dataset names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Datasets))
	for i, d := range c.Datasets {
		names[i] = d.Name
	}
	return names
}

// Schema returns the column contract of the dataset
func (d Dataset) Schema() schema.Schema {
	return schema.Schema{Dataset: d.Name, Fields: d.Fields}
}

// Bound returns the override bound, or the default when not adjustable
func (a *Adjust) Bound() scenario.Bound {
	if a == nil {
		return scenario.DefaultBound()
	}
	return scenario.Bound{MinFactor: a.MinFactor, MaxFactor: a.MaxFactor}
}
