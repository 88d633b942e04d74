package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"esgdash/domain/table"
	"esgdash/internal"
	apperrors "esgdash/internal/errors"

	"github.com/xuri/excelize/v2"
)

// FileReader reads CSV and XLSX files from the local data directory
type FileReader struct {
	baseDir string
	logger  *internal.Logger
}

// NewFileReader creates a reader resolving relative refs against baseDir
func NewFileReader(baseDir string, logger *internal.Logger) *FileReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileReader{baseDir: baseDir, logger: logger}
}

// Accepts takes plain paths and file: refs
func (r *FileReader) Accepts(ref string) bool {
	return !strings.Contains(ref, "://") && !strings.HasPrefix(ref, "sql:")
}

// Read loads a .csv or .xlsx file. An XLSX ref may name a sheet with a
// "#Sheet" suffix; the first sheet is used otherwise.
func (r *FileReader) Read(ctx context.Context, ref string) (*table.Table, error) {
	path, sheet := splitSheet(strings.TrimPrefix(ref, "file:"))
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.SourceMissing(path, err)
		}
		return nil, apperrors.SourceMalformed(path, err)
	}
	defer f.Close()

	start := time.Now()
	name := TableName(path)
	var t *table.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		t, err = ParseXLSX(f, name, sheet)
	default:
		t, err = ParseCSV(f, name)
	}
	if err != nil {
		return nil, apperrors.SourceMalformed(path, err)
	}

	r.logger.Debug("[FileReader] %s read in %.2fms (%d columns, %d rows)",
		path, float64(time.Since(start).Nanoseconds())/1e6, len(t.Columns()), t.Len())
	return t, nil
}

// ParseCSV reads a header row followed by data rows. Short rows are padded
// with missing cells and cells past the header are dropped.
func ParseCSV(src io.Reader, name string) (*table.Table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no header row")
	}
	return processRows(name, rows), nil
}

// ParseXLSX reads the named sheet, or the first one when sheet is empty
func ParseXLSX(src io.Reader, name, sheet string) (*table.Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}
	return processRows(name, rows), nil
}

// processRows converts raw string rows into a table of raw string cells
func processRows(name string, rows [][]string) *table.Table {
	headers := normalizeHeaders(rows[0])
	t := table.New(name, headers...)

	for _, raw := range rows[1:] {
		if blankRow(raw) {
			continue
		}
		row := make(table.Row, len(headers))
		for j, header := range headers {
			if j < len(raw) {
				row[header] = table.String(strings.TrimSpace(raw[j])).WithRaw(raw[j])
			} else {
				row[header] = table.Missing()
			}
			if strings.TrimSpace(row[header].Raw) == "" {
				row[header] = table.Missing()
			}
		}
		t.Append(row)
	}
	return t
}

// normalizeHeaders trims names, strips a UTF-8 BOM and makes names unique
// the way spreadsheet tools do (Name, Name.1, ...). Blank headers become
// "Unnamed: i".
func normalizeHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}
	return headers
}

func blankRow(raw []string) bool {
	for _, c := range raw {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitSheet(ref string) (path, sheet string) {
	if i := strings.LastIndex(ref, "#"); i > 0 && strings.HasSuffix(strings.ToLower(ref[:i]), ".xlsx") {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

// TableName derives a table name from a file name: "data/risk_data.csv" -> "risk_data"
func TableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
