package config

// ColumnType names the supported column types for coercion and profiling.
type ColumnType string

const (
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeString ColumnType = "string"
)

// Numeric reports whether the type carries numeric statistics (mean/stddev).
func (t ColumnType) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// ValidColumnTypes defines the allowed column type names.
var ValidColumnTypes = map[ColumnType]bool{
	TypeInt:    true,
	TypeFloat:  true,
	TypeString: true,
}

// ColumnRule holds the constraints for a single column.
//
// Threshold fields are pointers: nil means the check is not configured.
// MaxTypeErrorFraction defaults to 0 for numeric columns at evaluation time,
// so any value that fails coercion is a violation unless the threshold has
// been widened explicitly (or by healing).
type ColumnRule struct {
	Name                 string     `yaml:"name"`
	Type                 ColumnType `yaml:"type"`
	Required             bool       `yaml:"required,omitempty"`
	MaxNullFraction      *float64   `yaml:"max_null_fraction,omitempty"`
	MaxTypeErrorFraction *float64   `yaml:"max_type_error_fraction,omitempty"`
}

// QualityConfig holds dataset-level quality thresholds.
type QualityConfig struct {
	RowCountMin int `yaml:"row_count_min"`
}

// DriftConfig controls baseline profiling and drift comparison.
type DriftConfig struct {
	BaselinePath          string  `yaml:"baseline_path,omitempty"`
	MeanRelativeTolerance float64 `yaml:"mean_relative_tolerance"`
}

// HealingConfig controls how thresholds are widened on failure.
type HealingConfig struct {
	// Margin is the relative headroom added above an observed value when a
	// fractional threshold is widened: new = ceil(observed*(1+Margin), Precision).
	Margin float64 `yaml:"margin"`

	// Precision is the number of decimal places thresholds are rounded to.
	Precision int `yaml:"precision"`

	// MaxNullFractionCap bounds how far null/type-error thresholds may be
	// widened. A violation whose observed value exceeds the cap stays failing.
	MaxNullFractionCap float64 `yaml:"max_null_fraction_cap"`
}

// WarehouseConfig names the SQLite warehouse the cleaned dataset is loaded into.
type WarehouseConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// Config is the full pipeline configuration.
//
// A Config is passed by value through the pipeline and persisted only at
// healing checkpoints via Save. Use Clone before mutating a Config that is
// shared with an earlier pipeline stage.
type Config struct {
	Pipeline      string           `yaml:"pipeline"`
	SourcePath    string           `yaml:"source_path"`
	IncidentsPath string           `yaml:"incidents_path,omitempty"`
	Warehouse     *WarehouseConfig `yaml:"warehouse,omitempty"`
	Quality       QualityConfig    `yaml:"quality"`
	Drift         DriftConfig      `yaml:"drift,omitempty"`
	Healing       HealingConfig    `yaml:"healing"`
	Columns       []ColumnRule     `yaml:"columns"`
}

// Default values applied before decoding; absent YAML fields keep these.
const (
	DefaultMargin             = 0.10
	DefaultPrecision          = 2
	DefaultMaxNullFractionCap = 0.80
	DefaultDriftTolerance     = 0.50
)

func withDefaults() Config {
	return Config{
		Quality: QualityConfig{RowCountMin: 1},
		Drift:   DriftConfig{MeanRelativeTolerance: DefaultDriftTolerance},
		Healing: HealingConfig{
			Margin:             DefaultMargin,
			Precision:          DefaultPrecision,
			MaxNullFractionCap: DefaultMaxNullFractionCap,
		},
	}
}

// Column returns the rule for the named column, if configured.
func (c Config) Column(name string) (ColumnRule, bool) {
	for _, col := range c.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnRule{}, false
}

// Clone returns a deep copy of the Config. Threshold pointers are copied so
// adjusting the clone never mutates the original.
func (c Config) Clone() Config {
	out := c
	if c.Warehouse != nil {
		wh := *c.Warehouse
		out.Warehouse = &wh
	}
	out.Columns = make([]ColumnRule, len(c.Columns))
	for i, col := range c.Columns {
		cc := col
		if col.MaxNullFraction != nil {
			v := *col.MaxNullFraction
			cc.MaxNullFraction = &v
		}
		if col.MaxTypeErrorFraction != nil {
			v := *col.MaxTypeErrorFraction
			cc.MaxTypeErrorFraction = &v
		}
		out.Columns[i] = cc
	}
	return out
}
