package schema

import (
	"esgdash/domain/table"
)

// FieldType is the declared type of a dataset column
type FieldType string

const (
	TypeNumber FieldType = "number"
	TypeString FieldType = "string"
	TypeDate   FieldType = "date"
)

// Field describes one expected column
type Field struct {
	Name     string    `yaml:"name" json:"name"`
	Type     FieldType `yaml:"type" json:"type"`
	Required bool      `yaml:"required" json:"required"`
}

// Schema is the column contract of one dataset
type Schema struct {
	Dataset string  `yaml:"dataset" json:"dataset"`
	Fields  []Field `yaml:"fields" json:"fields"`
}

// TypeOf returns the declared type of a column, defaulting to string for
// columns the schema does not mention
func (s Schema) TypeOf(column string) FieldType {
	for _, f := range s.Fields {
		if f.Name == column {
			if f.Type == "" {
				return TypeString
			}
			return f.Type
		}
	}
	return TypeString
}

// Validate returns the required columns absent from t, in schema order
func (s Schema) Validate(t *table.Table) []string {
	var missing []string
	for _, f := range s.Fields {
		if f.Required && !t.HasColumn(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Valid reports whether the field type is one of the known types
func (t FieldType) Valid() bool {
	switch t {
	case TypeNumber, TypeString, TypeDate, "":
		return true
	}
	return false
}
