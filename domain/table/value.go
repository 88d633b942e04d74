package table

import (
	"strconv"
	"time"
)

// Kind defines the storage type for a cell
type Kind string

const (
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindDate    Kind = "date"
	KindMissing Kind = "missing"
)

// DateLayout is the canonical rendering of date cells
const DateLayout = "2006-01-02"

// Value is a single scalar cell. Raw keeps the source text so a loaded table
// can be written back without reformatting.
type Value struct {
	Kind Kind      `json:"kind"`
	Num  float64   `json:"num,omitempty"`
	Str  string    `json:"str,omitempty"`
	Time time.Time `json:"time,omitempty"`
	Raw  string    `json:"raw,omitempty"`
}

// Number creates a numeric value
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// String creates a string value; the empty string is a missing value
func String(s string) Value {
	if s == "" {
		return Missing()
	}
	return Value{Kind: KindString, Str: s, Raw: s}
}

// Date creates a date value
func Date(t time.Time) Value {
	return Value{Kind: KindDate, Time: t}
}

// Missing creates a missing value
func Missing() Value {
	return Value{Kind: KindMissing}
}

// WithRaw returns a copy of v carrying the original source text
func (v Value) WithRaw(raw string) Value {
	v.Raw = raw
	return v
}

// IsMissing reports whether the cell holds no data
func (v Value) IsMissing() bool {
	return v.Kind == KindMissing || v.Kind == ""
}

// IsNumber reports whether the cell holds a number
func (v Value) IsNumber() bool {
	return v.Kind == KindNumber
}

// Float returns the numeric content of number cells. Text is not parsed
// here; see app.Numeric for calculation-time coercion.
func (v Value) Float() (float64, bool) {
	if v.Kind == KindNumber {
		return v.Num, true
	}
	return 0, false
}

// String returns the display text of the value
func (v Value) String() string {
	if v.Raw != "" {
		return v.Raw
	}
	return v.Format()
}

// Format renders the value canonically, ignoring Raw
func (v Value) Format() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindDate:
		return v.Time.Format(DateLayout)
	}
	return ""
}

// Equal compares two values by kind and content, ignoring Raw
func (v Value) Equal(o Value) bool {
	if v.IsMissing() || o.IsMissing() {
		return v.IsMissing() && o.IsMissing()
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindDate:
		return v.Time.Equal(o.Time)
	}
	return v.Str == o.Str
}
