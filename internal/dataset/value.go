package dataset

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
)

// Value is a single typed cell.
//
// Raw always preserves the source text for diagnostics. For numeric columns,
// Num holds the coerced value when coercion succeeded. A cell that is present
// but fails coercion to the declared type becomes null AND is marked TypeErr,
// so the profiler can distinguish genuine nulls from malformed values.
type Value struct {
	Raw     string
	Null    bool
	TypeErr bool
	Num     float64 // valid for int/float columns when !Null
	Str     string  // valid for string columns when !Null
}

// nullTokens are source texts treated as null, matching common CSV export
// conventions (compared case-insensitively after trimming).
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

// isNullToken reports whether the trimmed cell text denotes a null.
func isNullToken(s string) bool {
	return nullTokens[strings.ToLower(s)]
}

// coerce converts one cell of source text to a typed Value per the column type.
func coerce(raw string, typ config.ColumnType) Value {
	trimmed := strings.TrimSpace(raw)
	if isNullToken(trimmed) {
		return Value{Raw: raw, Null: true}
	}

	switch typ {
	case config.TypeInt:
		n, err := cast.ToInt64E(trimmed)
		if err != nil {
			// Malformed numeric cell: nulled out, counted as a type error.
			return Value{Raw: raw, Null: true, TypeErr: true}
		}
		return Value{Raw: raw, Num: float64(n)}
	case config.TypeFloat:
		f, err := cast.ToFloat64E(trimmed)
		if err != nil {
			return Value{Raw: raw, Null: true, TypeErr: true}
		}
		return Value{Raw: raw, Num: f}
	default:
		return Value{Raw: raw, Str: trimmed}
	}
}
