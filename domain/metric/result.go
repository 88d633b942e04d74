package metric

import (
	"fmt"

	"esgdash/domain/table"
)

// Status classifies the outcome of a pipeline step
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusEmpty    Status = "empty"
)

// DiagnosticKind names one soft-failure category. The values match the
// error codes in internal/errors so logs and diagnostics line up.
type DiagnosticKind string

const (
	SourceMissing   DiagnosticKind = "SOURCE_MISSING"
	SourceMalformed DiagnosticKind = "SOURCE_MALFORMED"
	ColumnMissing   DiagnosticKind = "COLUMN_MISSING"
	NonNumeric      DiagnosticKind = "NON_NUMERIC"
	InvalidInput    DiagnosticKind = "INVALID_INPUT"
)

// Diagnostic is one recovered failure. Row is -1 when not row specific.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Source  string         `json:"source,omitempty"`
	Column  string         `json:"column,omitempty"`
	Row     int            `json:"row"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Row >= 0 && d.Column != "":
		return fmt.Sprintf("%s %s[%d].%s: %s", d.Kind, d.Source, d.Row, d.Column, d.Message)
	case d.Column != "":
		return fmt.Sprintf("%s %s.%s: %s", d.Kind, d.Source, d.Column, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Source, d.Message)
}

// Result is the explicit Ok / Degraded / Empty variant. Table is never nil.
type Result struct {
	Table       *table.Table `json:"-"`
	Status      Status       `json:"status"`
	Missing     []string     `json:"missing,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// OK wraps a table that needed no recovery
func OK(t *table.Table) Result {
	return Result{Table: t, Status: StatusOK}
}

// Degraded wraps a table computed with defaults for the missing columns
func Degraded(t *table.Table, missing []string, diags ...Diagnostic) Result {
	return Result{Table: t, Status: StatusDegraded, Missing: missing, Diagnostics: diags}
}

// Empty wraps the "no data available" outcome
func Empty(name string, diags ...Diagnostic) Result {
	return Result{Table: table.Empty(name), Status: StatusEmpty, Diagnostics: diags}
}

// OK reports whether no recovery was needed
func (r Result) OK() bool { return r.Status == StatusOK }

// Degraded reports whether defaults replaced missing columns
func (r Result) Degraded() bool { return r.Status == StatusDegraded }

// Empty reports whether no data is available
func (r Result) Empty() bool { return r.Status == StatusEmpty || r.Table.IsEmpty() }

// Merge carries the diagnostics and missing columns of prev into r. A
// degraded or empty predecessor keeps r from reporting ok.
func (r Result) Merge(prev Result) Result {
	r.Diagnostics = append(append([]Diagnostic{}, prev.Diagnostics...), r.Diagnostics...)
	for _, m := range prev.Missing {
		if !contains(r.Missing, m) {
			r.Missing = append(r.Missing, m)
		}
	}
	if r.Status == StatusOK && prev.Status != StatusOK {
		r.Status = StatusDegraded
	}
	return r
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
