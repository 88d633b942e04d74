package ports

import (
	"context"

	"esgdash/domain/table"
)

// SourceReader reads one tabular source into memory. Implementations return
// coded errors (SOURCE_MISSING, SOURCE_MALFORMED); turning them into empty
// tables is the loader's job.
type SourceReader interface {
	// Read loads the source named by ref. Cells are raw strings; typing
	// happens in the loader against the dataset schema.
	Read(ctx context.Context, ref string) (*table.Table, error)

	// Accepts reports whether ref uses this reader's scheme
	Accepts(ref string) bool
}
