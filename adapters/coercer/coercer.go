package coercer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"esgdash/domain/schema"
	"esgdash/domain/table"
)

// Coercer turns raw cell text into typed table values
type Coercer struct {
	config Config
}

// Config controls which spellings are accepted
type Config struct {
	DateLayouts     []string `yaml:"date_layouts" json:"date_layouts"`
	CurrencySymbols []string `yaml:"currency_symbols" json:"currency_symbols"`
	AllowPercent    bool     `yaml:"allow_percent" json:"allow_percent"`
}

// DefaultConfig returns the formats seen in the dashboard CSVs
func DefaultConfig() Config {
	return Config{
		DateLayouts: []string{
			"2006-01-02",
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"01/02/2006",
			"2006/01/02",
			"02-Jan-2006",
		},
		CurrencySymbols: []string{"$", "€", "£", "¥", "₪", "USD", "EUR", "GBP", "ILS", "NIS"},
		AllowPercent:    true,
	}
}

// New creates a coercer with the given config
func New(config Config) *Coercer {
	return &Coercer{config: config}
}

// Default creates a coercer with DefaultConfig
func Default() *Coercer {
	return New(DefaultConfig())
}

// Value converts raw text according to the declared field type. Text that
// does not parse keeps its string form so later steps can report it.
func (c *Coercer) Value(raw string, hint schema.FieldType) table.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return table.Missing()
	}
	switch hint {
	case schema.TypeNumber:
		if n, ok := c.Number(trimmed); ok {
			return table.Number(n).WithRaw(raw)
		}
	case schema.TypeDate:
		if t, ok := c.Date(trimmed); ok {
			return table.Date(t).WithRaw(raw)
		}
	}
	return table.String(trimmed).WithRaw(raw)
}

// Number parses numeric text. Handles currency symbols, thousands
// separators, parentheses for negatives, a trailing percent sign and
// European decimal commas.
func (c *Coercer) Number(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range c.config.CurrencySymbols {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	if c.config.AllowPercent {
		cleanVal = strings.TrimSuffix(cleanVal, "%")
	}

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(cleanVal, ",")
		periodIdx := strings.LastIndex(cleanVal, ".")
		if commaIdx > periodIdx {
			// 1.234,56 or 1 234,56
			cleanVal = strings.NewReplacer(".", "", " ", "", ",", ".").Replace(cleanVal)
		} else {
			// 1,234.56
			cleanVal = strings.NewReplacer(",", "", " ", "").Replace(cleanVal)
		}
	case hasComma:
		// a lone comma group of three digits is a thousands separator
		parts := strings.Split(cleanVal, ",")
		if len(parts) > 1 && allLen(parts[1:], 3) {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// Date parses text with the configured layouts
func (c *Coercer) Date(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range c.config.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func allLen(parts []string, n int) bool {
	for _, p := range parts {
		if len(p) != n {
			return false
		}
	}
	return true
}
