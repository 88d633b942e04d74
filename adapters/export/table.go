// Package export writes tables, charts and text summaries as downloadable
// files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"esgdash/domain/table"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"
)

// CSVExporter writes a table as comma separated text
type CSVExporter struct{}

// ContentType of CSV downloads
func (CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

// Extension of CSV downloads
func (CSVExporter) Extension() string { return "csv" }

// Export writes the header followed by every row in table order. Cells keep
// their source text when they have one.
func (CSVExporter) Export(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	columns := t.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(columns))
	for i := 0; i < t.Len(); i++ {
		for j, col := range columns {
			record[j] = t.Value(i, col).String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSXExporter writes a table as a single-sheet workbook
type XLSXExporter struct{}

// ContentType of XLSX downloads
func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension of XLSX downloads
func (XLSXExporter) Extension() string { return "xlsx" }

// Export writes one sheet named after the table. Numbers stay numeric cells.
func (XLSXExporter) Export(w io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	columns := t.Columns()
	header := make([]interface{}, len(columns))
	for j, col := range columns {
		header[j] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			row[j] = cellValue(t.Value(i, col))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(v table.Value) interface{} {
	switch v.Kind {
	case table.KindNumber:
		return v.Num
	case table.KindDate:
		return v.Time
	case table.KindString:
		return v.Str
	}
	return nil
}

// sheetName fits a table name into Excel's sheet name rules
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "Sheet1"
	}
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	return name
}

// SummaryText writes one line per entry
func SummaryText(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Money formats an amount as "$1,234.56"
func Money(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}
