package heal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/rules"
)

func fraction(v float64) *float64 { return &v }

func testConfig() config.Config {
	return config.Config{
		Quality: config.QualityConfig{RowCountMin: 5},
		Healing: config.HealingConfig{
			Margin:             0.1,
			Precision:          2,
			MaxNullFractionCap: 0.8,
		},
		Columns: []config.ColumnRule{
			{Name: "customer_id", Type: config.TypeInt, Required: true},
			{Name: "age", Type: config.TypeInt, MaxNullFraction: fraction(0.3)},
		},
	}
}

func TestApplyWidensNullFraction(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeNullFraction, Column: "age", Observed: 0.5, Threshold: 0.3},
	}

	healed, adjustments := Apply(cfg, violations)
	require.Len(t, adjustments, 1)

	age, _ := healed.Column("age")
	require.NotNil(t, age.MaxNullFraction)
	// ceil(0.5 * 1.1 * 100) / 100; float64 puts 0.5*1.1 a hair above 0.55,
	// so the round-up lands on 0.56.
	assert.InDelta(t, 0.56, *age.MaxNullFraction, 1e-9)
	assert.GreaterOrEqual(t, *age.MaxNullFraction, 0.5, "widened threshold covers the observed value")

	adj := adjustments[0]
	assert.Equal(t, "age", adj.Column)
	assert.Equal(t, "max_null_fraction", adj.Field)
	assert.Equal(t, "0.3", adj.Old)
	assert.Equal(t, "0.56", adj.New)
}

func TestApplySetsTypeErrorThreshold(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeTypeErrors, Column: "age", Observed: 0.1, Threshold: 0},
	}

	healed, adjustments := Apply(cfg, violations)
	require.Len(t, adjustments, 1)

	age, _ := healed.Column("age")
	require.NotNil(t, age.MaxTypeErrorFraction)
	assert.GreaterOrEqual(t, *age.MaxTypeErrorFraction, 0.1)
	assert.LessOrEqual(t, *age.MaxTypeErrorFraction, 0.8)
}

func TestApplyCapsWidening(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeNullFraction, Column: "age", Observed: 0.95, Threshold: 0.3},
	}

	healed, adjustments := Apply(cfg, violations)
	require.Len(t, adjustments, 1)

	age, _ := healed.Column("age")
	assert.InDelta(t, 0.8, *age.MaxNullFraction, 1e-9, "cap bounds automatic repair")
}

func TestApplyLowersRowCountMin(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeRowCount, Observed: 2, Threshold: 5},
	}

	healed, adjustments := Apply(cfg, violations)
	require.Len(t, adjustments, 1)
	assert.Equal(t, 2, healed.Quality.RowCountMin)
	assert.Equal(t, "quality.row_count_min", adjustments[0].Field)
}

func TestApplySoftensMissingRequiredColumn(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeMissingColumn, Column: "customer_id"},
	}

	healed, adjustments := Apply(cfg, violations)
	require.Len(t, adjustments, 1, "softening required is recorded, never silent")

	id, _ := healed.Column("customer_id")
	assert.False(t, id.Required)
	assert.Equal(t, "required", adjustments[0].Field)
	assert.Equal(t, "true", adjustments[0].Old)
	assert.Equal(t, "false", adjustments[0].New)
}

func TestApplyMissingOptionalColumnNoAdjustment(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeMissingColumn, Column: "age"}, // age is not required
	}

	_, adjustments := Apply(cfg, violations)
	assert.Empty(t, adjustments)
}

func TestApplyDoesNotHealRequiredNulls(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeRequiredNulls, Column: "customer_id", Observed: 0.1},
	}

	healed, adjustments := Apply(cfg, violations)
	assert.Empty(t, adjustments)

	id, _ := healed.Column("customer_id")
	assert.True(t, id.Required)
}

func TestApplyIsIdempotent(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeNullFraction, Column: "age", Observed: 0.5, Threshold: 0.3},
		{Code: rules.CodeRowCount, Observed: 2, Threshold: 5},
	}

	once, firstAdjustments := Apply(cfg, violations)
	require.NotEmpty(t, firstAdjustments)

	twice, secondAdjustments := Apply(once, violations)
	assert.Empty(t, secondAdjustments, "second application changes nothing")
	assert.Equal(t, once, twice)
}

func TestApplyNeverTightens(t *testing.T) {
	cfg := testConfig()
	wide := 0.7
	cfg.Columns[1].MaxNullFraction = &wide

	// A stale violation reporting an observed value below the current threshold.
	violations := []rules.Violation{
		{Code: rules.CodeNullFraction, Column: "age", Observed: 0.4, Threshold: 0.3},
	}

	healed, adjustments := Apply(cfg, violations)
	assert.Empty(t, adjustments)
	age, _ := healed.Column("age")
	assert.InDelta(t, 0.7, *age.MaxNullFraction, 1e-9)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	cfg := testConfig()
	violations := []rules.Violation{
		{Code: rules.CodeNullFraction, Column: "age", Observed: 0.5, Threshold: 0.3},
		{Code: rules.CodeRowCount, Observed: 2, Threshold: 5},
	}

	Apply(cfg, violations)

	age, _ := cfg.Column("age")
	assert.InDelta(t, 0.3, *age.MaxNullFraction, 1e-9)
	assert.Equal(t, 5, cfg.Quality.RowCountMin)
}

func TestWidenedRounding(t *testing.T) {
	h := config.HealingConfig{Margin: 0, Precision: 2, MaxNullFractionCap: 0.8}

	// Rounding must never land below the observed value.
	for _, observed := range []float64{0.004, 0.4286, 0.333333, 0.799} {
		got := widened(observed, h)
		assert.GreaterOrEqual(t, got, observed, "widened(%g)", observed)
	}
}

func TestWidenedClampsToOne(t *testing.T) {
	h := config.HealingConfig{Margin: 0.5, Precision: 2, MaxNullFractionCap: 0} // no cap
	assert.LessOrEqual(t, widened(0.9, h), 1.0)
}
