// Package metric defines derived-column rules and the result variant every
// pipeline step returns.
package metric

import (
	"fmt"
	"strings"
)

// Combinator folds the numeric inputs of one row into the derived value
type Combinator string

const (
	// Multiply is the product of all inputs
	Multiply Combinator = "multiply"
	// Percent is inputs[0] / inputs[1] * 100, zero when the divisor is zero
	Percent Combinator = "percent"
)

// Rule computes Output from Inputs on every row independently
type Rule struct {
	Name       string     `yaml:"name" json:"name"`
	Output     string     `yaml:"output" json:"output"`
	Inputs     []string   `yaml:"inputs" json:"inputs"`
	Combinator Combinator `yaml:"combinator" json:"combinator"`
	Default    float64    `yaml:"default" json:"default"`
}

// FinancialImpact is the risk rule used by the climate risk page
func FinancialImpact() Rule {
	return Rule{
		Name:       "financial_impact",
		Output:     "Financial_Impact",
		Inputs:     []string{"Probability", "Severity"},
		Combinator: Multiply,
	}
}

// Validate checks the rule definition itself, not the data it runs on
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Output) == "" {
		return fmt.Errorf("rule %q: output column is required", r.Name)
	}
	if len(r.Inputs) == 0 {
		return fmt.Errorf("rule %q: at least one input column is required", r.Name)
	}
	for _, in := range r.Inputs {
		if in == r.Output {
			return fmt.Errorf("rule %q: output %q cannot also be an input", r.Name, in)
		}
	}
	switch r.combinator() {
	case Multiply:
	case Percent:
		if len(r.Inputs) != 2 {
			return fmt.Errorf("rule %q: percent needs exactly 2 inputs, got %d", r.Name, len(r.Inputs))
		}
	default:
		return fmt.Errorf("rule %q: unknown combinator %q", r.Name, r.Combinator)
	}
	return nil
}

// HasInput reports whether column is one of the rule inputs
func (r Rule) HasInput(column string) bool {
	for _, in := range r.Inputs {
		if in == column {
			return true
		}
	}
	return false
}

// Combine applies the combinator to one row of operands
func (r Rule) Combine(operands []float64) float64 {
	switch r.combinator() {
	case Percent:
		if len(operands) != 2 || operands[1] == 0 {
			return 0
		}
		return operands[0] / operands[1] * 100
	default:
		product := 1.0
		for _, v := range operands {
			product *= v
		}
		return product
	}
}

// String renders the rule as "Out = A × B"
func (r Rule) String() string {
	if r.combinator() == Percent && len(r.Inputs) == 2 {
		return fmt.Sprintf("%s = %s / %s × 100", r.Output, r.Inputs[0], r.Inputs[1])
	}
	return fmt.Sprintf("%s = %s", r.Output, strings.Join(r.Inputs, " × "))
}

func (r Rule) combinator() Combinator {
	if r.Combinator == "" {
		return Multiply
	}
	return r.Combinator
}
