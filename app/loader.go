package app

import (
	"context"
	"time"

	"esgdash/adapters/coercer"
	"esgdash/adapters/tabular"
	"esgdash/domain/metric"
	"esgdash/domain/table"
	"esgdash/internal"
	"esgdash/internal/config"
	apperrors "esgdash/internal/errors"
	"esgdash/internal/metrics"
	"esgdash/ports"

	"golang.org/x/sync/errgroup"
)

const loadConcurrency = 4

// Loader resolves dataset names to sources, reads them and types the cells.
// It never fails: every read problem becomes an empty result with a diagnostic.
type Loader struct {
	catalog *config.Catalog
	readers []ports.SourceReader
	coercer *coercer.Coercer
	metrics *metrics.Collectors
	logger  *internal.Logger
}

// NewLoader creates a loader. Readers are tried in order; the first one that
// accepts a ref reads it.
func NewLoader(catalog *config.Catalog, coerce *coercer.Coercer, m *metrics.Collectors, logger *internal.Logger, readers ...ports.SourceReader) *Loader {
	if catalog == nil {
		catalog = &config.Catalog{Theme: config.DefaultTheme()}
	}
	if coerce == nil {
		coerce = coercer.Default()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{catalog: catalog, readers: readers, coercer: coerce, metrics: m, logger: logger}
}

// Dataset returns the catalog entry for name. Unknown names are treated as
// a source reference with no schema.
func (l *Loader) Dataset(name string) config.Dataset {
	if ds, ok := l.catalog.Dataset(name); ok {
		return ds
	}
	return config.Dataset{Name: tabular.TableName(name), Title: name, Source: name}
}

// Load reads one dataset
func (l *Loader) Load(ctx context.Context, name string) metric.Result {
	start := time.Now()
	ds := l.Dataset(name)
	result := l.load(ctx, ds)

	l.record(ds.Name, result.Diagnostics)
	l.metrics.ObserveLoad(ds.Name, string(result.Status), result.Table.Len(), time.Since(start))
	l.logger.Debug("[Loader] %s -> %s (%d rows, status %s)", ds.Name, ds.Source, result.Table.Len(), result.Status)
	return result
}

// LoadAll reads several datasets concurrently, keeping the input order
func (l *Loader) LoadAll(ctx context.Context, names []string) []metric.Result {
	results := make([]metric.Result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, name := range names {
		g.Go(func() error {
			results[i] = l.Load(gctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (l *Loader) load(ctx context.Context, ds config.Dataset) metric.Result {
	reader := l.readerFor(ds.Source)
	if reader == nil {
		return metric.Empty(ds.Name, metric.Diagnostic{
			Kind:    metric.SourceMissing,
			Source:  ds.Source,
			Row:     -1,
			Message: "no reader accepts this source",
		})
	}

	raw, err := reader.Read(ctx, ds.Source)
	if err != nil {
		return metric.Empty(ds.Name, metric.Diagnostic{
			Kind:    readKind(err),
			Source:  ds.Source,
			Row:     -1,
			Message: err.Error(),
		})
	}

	t := l.coerce(raw, ds)
	missing := ds.Schema().Validate(t)
	if len(missing) == 0 {
		return metric.OK(t)
	}

	diags := make([]metric.Diagnostic, len(missing))
	for i, col := range missing {
		diags[i] = metric.Diagnostic{
			Kind:    metric.ColumnMissing,
			Source:  ds.Name,
			Column:  col,
			Row:     -1,
			Message: "required column not found",
		}
	}
	return metric.Degraded(t, missing, diags...)
}

// coerce types every cell according to the dataset schema
func (l *Loader) coerce(raw *table.Table, ds config.Dataset) *table.Table {
	s := ds.Schema()
	columns := raw.Columns()
	t := table.New(ds.Name, columns...)
	for i := 0; i < raw.Len(); i++ {
		row := make(table.Row, len(columns))
		for _, col := range columns {
			v := raw.Value(i, col)
			if v.IsMissing() {
				row[col] = v
				continue
			}
			text := v.Raw
			if text == "" {
				text = v.Format()
			}
			row[col] = l.coercer.Value(text, s.TypeOf(col))
		}
		t.Append(row)
	}
	return t
}

func (l *Loader) readerFor(ref string) ports.SourceReader {
	for _, r := range l.readers {
		if r.Accepts(ref) {
			return r
		}
	}
	return nil
}

func (l *Loader) record(dataset string, diags []metric.Diagnostic) {
	for _, d := range diags {
		l.logger.Warn("[Loader] %s: %s", dataset, d)
		l.metrics.ObserveDiagnostic(string(d.Kind))
	}
}

func readKind(err error) metric.DiagnosticKind {
	switch apperrors.GetCode(err) {
	case apperrors.CodeSourceMissing:
		return metric.SourceMissing
	case apperrors.CodeInvalidInput:
		return metric.InvalidInput
	}
	return metric.SourceMalformed
}

