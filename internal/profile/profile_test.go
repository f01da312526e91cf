package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/dataset"
)

func intVal(n float64) dataset.Value { return dataset.Value{Raw: "x", Num: n} }
func nullVal() dataset.Value         { return dataset.Value{Null: true} }
func typeErrVal() dataset.Value      { return dataset.Value{Null: true, TypeErr: true, Raw: "bad"} }
func strVal(s string) dataset.Value  { return dataset.Value{Raw: s, Str: s} }

func testDataset(ages []dataset.Value) *dataset.Dataset {
	ds := &dataset.Dataset{
		Columns: []dataset.Column{
			{Name: "age", Type: config.TypeInt},
		},
	}
	for _, v := range ages {
		ds.Rows = append(ds.Rows, map[string]dataset.Value{"age": v})
	}
	return ds
}

func TestBuildRowCountMatchesDataset(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		vals := make([]dataset.Value, n)
		for i := range vals {
			vals[i] = intVal(float64(i))
		}
		profiles := Build(testDataset(vals))
		require.Len(t, profiles, 1)
		assert.Equal(t, n, profiles[0].RowCount, "row count for %d rows", n)
	}
}

func TestBuildNullAndTypeErrorFractions(t *testing.T) {
	ds := testDataset([]dataset.Value{
		intVal(10), nullVal(), typeErrVal(), intVal(20),
	})
	p := Build(ds)[0]

	assert.Equal(t, 2, p.NullCount, "type errors are nulled out, so both count as null")
	assert.InDelta(t, 0.5, p.NullFraction, 1e-9)
	assert.Equal(t, 1, p.TypeErrorCount)
	assert.InDelta(t, 0.25, p.TypeErrorFraction, 1e-9)
}

func TestBuildNumericStats(t *testing.T) {
	ds := testDataset([]dataset.Value{
		intVal(10), intVal(20), intVal(30), nullVal(),
	})
	p := Build(ds)[0]

	assert.True(t, p.Numeric)
	assert.Equal(t, 3, p.SampleCount, "nulls excluded from samples")
	assert.InDelta(t, 20.0, p.Mean, 1e-9)
	assert.InDelta(t, 10.0, p.Stddev, 1e-9) // sample stddev of {10,20,30}
}

func TestBuildStddevSingleValueIsZero(t *testing.T) {
	p := Build(testDataset([]dataset.Value{intVal(42)}))[0]
	assert.Equal(t, 1, p.SampleCount)
	assert.InDelta(t, 42.0, p.Mean, 1e-9)
	assert.Zero(t, p.Stddev)
}

func TestBuildEmptyDataset(t *testing.T) {
	p := Build(testDataset(nil))[0]

	assert.Equal(t, 0, p.RowCount)
	assert.Zero(t, p.NullFraction, "empty dataset reports null fraction 0, not NaN")
	assert.Zero(t, p.TypeErrorFraction)
	assert.Equal(t, 0, p.DistinctCount)
	assert.Equal(t, 0, p.SampleCount)
}

func TestBuildDistinctCount(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []dataset.Column{{Name: "name", Type: config.TypeString}},
		Rows: []map[string]dataset.Value{
			{"name": strVal("alice")},
			{"name": strVal("bob")},
			{"name": strVal("alice")},
			{"name": nullVal()},
		},
	}
	p := Build(ds)[0]
	assert.Equal(t, 2, p.DistinctCount, "nulls excluded from distinct count")
	assert.False(t, p.Numeric)
}

func TestBuildPreservesColumnOrder(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []dataset.Column{
			{Name: "b", Type: config.TypeInt},
			{Name: "a", Type: config.TypeString},
		},
		Rows: []map[string]dataset.Value{
			{"b": intVal(1), "a": strVal("x")},
		},
	}
	profiles := Build(ds)
	require.Len(t, profiles, 2)
	assert.Equal(t, "b", profiles[0].Column)
	assert.Equal(t, "a", profiles[1].Column)
}

func TestByColumn(t *testing.T) {
	profiles := []ColumnProfile{{Column: "a"}, {Column: "b"}}
	byCol := ByColumn(profiles)
	require.Len(t, byCol, 2)
	assert.Equal(t, "a", byCol["a"].Column)
}
