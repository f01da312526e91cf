package heal

import (
	"fmt"
	"math"
	"strconv"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/rules"
)

// Adjustment records one config field change: what was widened, from what, to
// what. Old and New are formatted values so the record serializes the same
// way regardless of field type (fraction, count, or flag).
type Adjustment struct {
	Column  string `json:"column,omitempty"`
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Message string `json:"message"`
}

// Apply derives a widened config from the current config and the violations
// of the immediately preceding failing run.
//
// Policy per violation code:
//
//   - NULL_FRACTION_EXCEEDED, TYPE_ERRORS_EXCEEDED: threshold becomes
//     observed*(1+margin), rounded up to the configured precision, capped by
//     max_null_fraction_cap (and by 1). A capped threshold may still fail the
//     rerun; that is intentional - the cap marks the limit of automatic repair.
//   - ROW_COUNT: row_count_min is lowered to the observed row count.
//   - MISSING_COLUMN: a required column is softened to required=false. The
//     change is recorded as an adjustment like any other, never applied
//     silently.
//   - REQUIRED_NULLS: not healed. Nulls in a required column mean the
//     contract itself is broken, so the run stays failed.
//
// Widening is monotonic: a threshold only ever moves toward the observed
// value, never past what the failing run needs, and never tightens. Apply is
// idempotent after one application - rerunning it against the same violations
// on an already-widened config yields no further adjustments, so the
// single-rerun pipeline cannot drift unboundedly.
//
// The input config is never mutated; the returned config is a deep copy.
func Apply(cfg config.Config, violations []rules.Violation) (config.Config, []Adjustment) {
	out := cfg.Clone()
	var adjustments []Adjustment

	for _, v := range violations {
		switch v.Code {
		case rules.CodeRowCount:
			observed := int(v.Observed)
			if observed < out.Quality.RowCountMin {
				adj := Adjustment{
					Field: "quality.row_count_min",
					Old:   strconv.Itoa(out.Quality.RowCountMin),
					New:   strconv.Itoa(observed),
					Message: fmt.Sprintf("lowered row_count_min from %d to %d (observed rows=%d)",
						out.Quality.RowCountMin, observed, observed),
				}
				out.Quality.RowCountMin = observed
				adjustments = append(adjustments, adj)
			}

		case rules.CodeNullFraction:
			if adj, ok := widenColumn(&out, v, "max_null_fraction"); ok {
				adjustments = append(adjustments, adj)
			}

		case rules.CodeTypeErrors:
			if adj, ok := widenColumn(&out, v, "max_type_error_fraction"); ok {
				adjustments = append(adjustments, adj)
			}

		case rules.CodeMissingColumn:
			for i := range out.Columns {
				col := &out.Columns[i]
				if col.Name != v.Column || !col.Required {
					continue
				}
				col.Required = false
				adjustments = append(adjustments, Adjustment{
					Column: v.Column,
					Field:  "required",
					Old:    "true",
					New:    "false",
					Message: fmt.Sprintf("column %q is missing in source; softened required to false",
						v.Column),
				})
			}
		}
	}

	return out, adjustments
}

// widenColumn raises a fractional threshold on the named column field to
// cover the observed value. Returns false when no change is needed (already
// wide enough) or the column is not configured.
func widenColumn(cfg *config.Config, v rules.Violation, field string) (Adjustment, bool) {
	for i := range cfg.Columns {
		col := &cfg.Columns[i]
		if col.Name != v.Column {
			continue
		}

		target := widened(v.Observed, cfg.Healing)
		var slot **float64
		switch field {
		case "max_null_fraction":
			slot = &col.MaxNullFraction
		case "max_type_error_fraction":
			slot = &col.MaxTypeErrorFraction
		default:
			return Adjustment{}, false
		}

		old := 0.0
		if *slot != nil {
			old = **slot
		}
		if target <= old {
			return Adjustment{}, false
		}

		nv := target
		*slot = &nv
		return Adjustment{
			Column: col.Name,
			Field:  field,
			Old:    formatFraction(old),
			New:    formatFraction(nv),
			Message: fmt.Sprintf("raised %s for column %q from %s to %s (observed=%s)",
				field, col.Name, formatFraction(old), formatFraction(nv), formatFraction(v.Observed)),
		}, true
	}
	return Adjustment{}, false
}

// widened computes the new threshold: observed plus the relative margin,
// rounded UP to the configured precision so the result always covers the
// observed value, then clamped to the cap and to 1.
func widened(observed float64, h config.HealingConfig) float64 {
	scale := math.Pow(10, float64(h.Precision))
	v := math.Ceil(observed*(1+h.Margin)*scale) / scale
	if h.MaxNullFractionCap > 0 && v > h.MaxNullFractionCap {
		v = h.MaxNullFractionCap
	}
	if v > 1 {
		v = 1
	}
	return v
}

func formatFraction(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
