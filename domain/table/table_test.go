package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	t := New("risk_data", "Subcategory", "Severity")
	t.Append(Row{"Subcategory": String("Flood"), "Severity": Number(1000000).WithRaw("1,000,000")})
	t.Append(Row{"Subcategory": String("Drought"), "Severity": Number(500000)})
	return t
}

func TestTableKeepsColumnAndRowOrder(t *testing.T) {
	tbl := sample()
	assert.Equal(t, []string{"Subcategory", "Severity"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Flood", tbl.Value(0, "Subcategory").String())
	assert.Equal(t, "Drought", tbl.Value(1, "Subcategory").String())
}

func TestTableSetAppendsColumn(t *testing.T) {
	tbl := sample()
	tbl.Set(0, "Financial_Impact", Number(200000))

	assert.Equal(t, []string{"Subcategory", "Severity", "Financial_Impact"}, tbl.Columns())
	assert.True(t, tbl.Value(1, "Financial_Impact").IsMissing())
}

func TestTableValueOutOfRange(t *testing.T) {
	tbl := sample()
	assert.True(t, tbl.Value(-1, "Severity").IsMissing())
	assert.True(t, tbl.Value(5, "Severity").IsMissing())
	assert.True(t, tbl.Value(0, "Nope").IsMissing())
}

func TestTableCloneIsIndependent(t *testing.T) {
	tbl := sample()
	c := tbl.Clone()
	c.Set(0, "Severity", Number(1))
	c.AddColumn("Extra")

	assert.Equal(t, 1000000.0, tbl.Value(0, "Severity").Num)
	assert.False(t, tbl.HasColumn("Extra"))
	assert.Equal(t, tbl.Name, c.Name)
}

func TestTableColumnsReturnsCopy(t *testing.T) {
	tbl := sample()
	cols := tbl.Columns()
	cols[0] = "changed"
	assert.Equal(t, "Subcategory", tbl.Columns()[0])
}

func TestTableFilterAndFind(t *testing.T) {
	tbl := sample()
	big := tbl.Filter(func(_ int, r Row) bool { return r["Severity"].Num > 600000 })

	require.Equal(t, 1, big.Len())
	assert.Equal(t, "Flood", big.Value(0, "Subcategory").String())
	assert.Equal(t, 1, tbl.Find("Subcategory", "Drought"))
	assert.Equal(t, -1, tbl.Find("Subcategory", "Storm"))
}

func TestEmptyTable(t *testing.T) {
	var nilTable *Table
	assert.Equal(t, 0, nilTable.Len())
	assert.True(t, Empty("kpi_data").IsEmpty())
	assert.True(t, New("kpi_data", "KPI").IsEmpty())
}

func TestValueRendering(t *testing.T) {
	day := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		value  Value
		str    string
		format string
	}{
		{"number keeps raw text", Number(1000000).WithRaw("1,000,000"), "1,000,000", "1000000"},
		{"number without raw", Number(0.25), "0.25", "0.25"},
		{"string", String("Physical"), "Physical", "Physical"},
		{"date", Date(day), "2024-03-31", "2024-03-31"},
		{"missing", Missing(), "", ""},
		{"empty string is missing", String(""), "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.value.String())
			assert.Equal(t, tt.format, tt.value.Format())
		})
	}
}

func TestValueEqualIgnoresRaw(t *testing.T) {
	assert.True(t, Number(5).Equal(Number(5).WithRaw("5.0")))
	assert.False(t, Number(5).Equal(String("5")))
	assert.True(t, Missing().Equal(Value{}))
	assert.False(t, Missing().Equal(Number(0)))

	_, ok := String("12").Float()
	assert.False(t, ok, "strings are not parsed after load")
}
