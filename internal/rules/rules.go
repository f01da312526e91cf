package rules

import (
	"fmt"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/profile"
)

// Result is the outcome of evaluating profiles against the configured rules.
type Result struct {
	Pass       bool        `json:"pass"`
	RowCount   int         `json:"row_count"`
	Violations []Violation `json:"violations,omitempty"`
}

// Evaluate compares column profiles against the configured thresholds.
//
// rowCount is the dataset's true row count. It is passed separately because
// the profile list cannot stand in for it: a source whose configured columns
// are all absent profiles to an empty list while still holding rows.
//
// Pure and deterministic: the result is a function of its inputs only, and
// violations are emitted in a fixed order - the dataset-level row count rule
// first, then per-column rules in config order. A required column with no
// profile is reported as missing; an absent optional column is not a
// violation.
//
// Type errors: numeric columns default to a zero tolerance, so any coercion
// failure is a violation unless max_type_error_fraction widens it.
func Evaluate(rowCount int, profiles []profile.ColumnProfile, cfg config.Config) Result {
	byCol := profile.ByColumn(profiles)

	res := Result{RowCount: rowCount}

	if rowCount < cfg.Quality.RowCountMin {
		res.Violations = append(res.Violations, Violation{
			Code:      CodeRowCount,
			Observed:  float64(rowCount),
			Threshold: float64(cfg.Quality.RowCountMin),
			Message:   fmt.Sprintf("row count %d < minimum %d", rowCount, cfg.Quality.RowCountMin),
		})
	}

	for _, col := range cfg.Columns {
		p, ok := byCol[col.Name]
		if !ok {
			// Only a required column's absence is a violation; this keeps the
			// required->false healing adjustment effective on the rerun.
			if col.Required {
				res.Violations = append(res.Violations, Violation{
					Code:    CodeMissingColumn,
					Column:  col.Name,
					Message: fmt.Sprintf("required column %q not found in source", col.Name),
				})
			}
			continue
		}

		if col.Required && p.NullCount > 0 {
			res.Violations = append(res.Violations, Violation{
				Code:      CodeRequiredNulls,
				Column:    col.Name,
				Observed:  p.NullFraction,
				Threshold: 0,
				Message:   fmt.Sprintf("required column %q has %d null(s)", col.Name, p.NullCount),
			})
		}

		if col.MaxNullFraction != nil && p.NullFraction > *col.MaxNullFraction {
			res.Violations = append(res.Violations, Violation{
				Code:      CodeNullFraction,
				Column:    col.Name,
				Observed:  p.NullFraction,
				Threshold: *col.MaxNullFraction,
				Message: fmt.Sprintf("column %q null fraction %.2f > allowed %.2f",
					col.Name, p.NullFraction, *col.MaxNullFraction),
			})
		}

		if col.Type.Numeric() {
			maxTypeErr := 0.0
			if col.MaxTypeErrorFraction != nil {
				maxTypeErr = *col.MaxTypeErrorFraction
			}
			if p.TypeErrorFraction > maxTypeErr {
				res.Violations = append(res.Violations, Violation{
					Code:      CodeTypeErrors,
					Column:    col.Name,
					Observed:  p.TypeErrorFraction,
					Threshold: maxTypeErr,
					Message: fmt.Sprintf("column %q type error fraction %.2f > allowed %.2f",
						col.Name, p.TypeErrorFraction, maxTypeErr),
				})
			}
		}
	}

	res.Pass = len(res.Violations) == 0
	return res
}
