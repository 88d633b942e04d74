package coercer

import (
	"testing"
	"time"

	"esgdash/domain/schema"
	"esgdash/domain/table"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		raw      string
		expected float64
		ok       bool
	}{
		{"plain integer", "1000000", 1000000, true},
		{"decimal probability", "0.2", 0.2, true},
		{"currency with thousands", "$1,250,000", 1250000, true},
		{"parentheses negative", "(450)", -450, true},
		{"percent sign", "12.5%", 12.5, true},
		{"european decimals", "1.234,56", 1234.56, true},
		{"lone decimal comma", "3,5", 3.5, true},
		{"lone thousands comma", "12,000", 12000, true},
		{"shekel prefix", "₪300", 300, true},
		{"scientific notation", "1e6", 1000000, true},
		{"text", "High", 0, false},
		{"empty", "   ", 0, false},
		{"infinity", "Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Number(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestDate(t *testing.T) {
	c := Default()

	got, ok := c.Date("2024-06-30")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), got)

	_, ok = c.Date("Q3 2024")
	assert.False(t, ok)
}

func TestValueKeepsRawText(t *testing.T) {
	c := Default()

	v := c.Value(" 1,000 ", schema.TypeNumber)
	assert.Equal(t, table.KindNumber, v.Kind)
	assert.Equal(t, 1000.0, v.Num)
	assert.Equal(t, " 1,000 ", v.String())

	bad := c.Value("n/a", schema.TypeNumber)
	assert.Equal(t, table.KindString, bad.Kind)
	assert.Equal(t, "n/a", bad.Str)

	assert.True(t, c.Value("", schema.TypeString).IsMissing())
	assert.Equal(t, table.KindDate, c.Value("2023-01-01", schema.TypeDate).Kind)
	assert.Equal(t, table.KindString, c.Value("42", schema.TypeString).Kind)
}
