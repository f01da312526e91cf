package rules

import "fmt"

// Code identifies the violated rule.
type Code string

const (
	// CodeRowCount indicates the dataset has fewer rows than row_count_min.
	CodeRowCount Code = "ROW_COUNT"

	// CodeMissingColumn indicates a required column is absent from the source.
	CodeMissingColumn Code = "MISSING_COLUMN"

	// CodeRequiredNulls indicates a required column contains nulls.
	CodeRequiredNulls Code = "REQUIRED_NULLS"

	// CodeNullFraction indicates a column's null fraction exceeds its threshold.
	CodeNullFraction Code = "NULL_FRACTION_EXCEEDED"

	// CodeTypeErrors indicates a column has more coercion failures than allowed.
	CodeTypeErrors Code = "TYPE_ERRORS_EXCEEDED"
)

// Class groups violation codes into the error taxonomy. Every class here is
// recoverable: it drives the heal-and-rerun path rather than aborting the run.
type Class string

const (
	ClassSchema   Class = "SchemaViolation"
	ClassValue    Class = "ValueViolation"
	ClassRowCount Class = "RowCountViolation"
)

// Class returns the taxonomy class for a code.
func (c Code) Class() Class {
	switch c {
	case CodeRowCount:
		return ClassRowCount
	case CodeMissingColumn:
		return ClassSchema
	default:
		return ClassValue
	}
}

// Violation describes one failed rule: which column (empty for dataset-level
// rules), what was observed, and the threshold it was compared against.
type Violation struct {
	Code      Code    `json:"code"`
	Column    string  `json:"column,omitempty"`
	Observed  float64 `json:"observed"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

func (v Violation) String() string {
	if v.Column != "" {
		return fmt.Sprintf("%s [%s]: %s", v.Code, v.Column, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}
