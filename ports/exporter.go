package ports

import (
	"io"

	"esgdash/domain/table"
)

// TableExporter writes a table in one download format
type TableExporter interface {
	Export(w io.Writer, t *table.Table) error
	ContentType() string
	Extension() string
}
