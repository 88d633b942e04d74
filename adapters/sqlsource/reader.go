// Package sqlsource reads dataset tables from a SQL database. Refs look like
// "sql:risk_data" and select every row of that table.
package sqlsource

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"esgdash/domain/table"
	"esgdash/internal"
	apperrors "esgdash/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const scheme = "sql:"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Reader implements ports.SourceReader over a sqlx handle
type Reader struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// Open connects with driver "postgres" or "sqlite" and pings the database
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to connect to %s database", driver)
	}
	return db, nil
}

// NewReader creates a SQL source reader
func NewReader(db *sqlx.DB, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{db: db, logger: logger}
}

// Accepts takes sql: refs
func (r *Reader) Accepts(ref string) bool {
	return strings.HasPrefix(ref, scheme)
}

// Read selects all rows of the referenced table in storage order
func (r *Reader) Read(ctx context.Context, ref string) (*table.Table, error) {
	name := strings.TrimSpace(strings.TrimPrefix(ref, scheme))
	if !identifier.MatchString(name) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid table name %q", name))
	}

	start := time.Now()
	rows, err := r.db.QueryxContext(ctx, "SELECT * FROM "+name)
	if err != nil {
		if isMissingTable(err) {
			return nil, apperrors.SourceMissing(ref, err)
		}
		return nil, apperrors.SourceMalformed(ref, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.SourceMalformed(ref, err)
	}

	t := table.New(name, columns...)
	for rows.Next() {
		record := make(map[string]interface{}, len(columns))
		if err := rows.MapScan(record); err != nil {
			return nil, apperrors.SourceMalformed(ref, err)
		}
		row := make(table.Row, len(columns))
		for _, col := range columns {
			row[col] = cell(record[col])
		}
		t.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.SourceMalformed(ref, err)
	}

	r.logger.Debug("[SQLReader] %s read in %.2fms (%d rows)", name, float64(time.Since(start).Nanoseconds())/1e6, t.Len())
	return t, nil
}

// cell renders a driver value as raw text, the same shape file sources
// produce, so typing stays in one place
func cell(v interface{}) table.Value {
	var raw string
	switch t := v.(type) {
	case nil:
		return table.Missing()
	case []byte:
		raw = string(t)
	case string:
		raw = t
	case int64:
		raw = strconv.FormatInt(t, 10)
	case float64:
		raw = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		raw = strconv.FormatBool(t)
	case time.Time:
		raw = t.Format(table.DateLayout)
	default:
		raw = fmt.Sprintf("%v", t)
	}
	return table.String(raw).WithRaw(raw)
}

func isMissingTable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist")
}
