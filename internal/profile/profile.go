package profile

import (
	"math"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/dataset"
)

// ColumnProfile holds the computed statistics for one column.
//
// Fractions are over the full row count. For an empty dataset every fraction
// is reported as 0 rather than NaN; RowCount distinguishes the two cases.
// Mean and Stddev are only meaningful when Numeric is true and SampleCount
// is at least 1; Stddev is the sample standard deviation, 0 for a single
// observation.
type ColumnProfile struct {
	Column            string  `json:"column"`
	RowCount          int     `json:"row_count"`
	NullCount         int     `json:"null_count"`
	NullFraction      float64 `json:"null_fraction"`
	TypeErrorCount    int     `json:"type_error_count"`
	TypeErrorFraction float64 `json:"type_error_fraction"`
	DistinctCount     int     `json:"distinct_count"`
	Numeric           bool    `json:"numeric"`
	SampleCount       int     `json:"sample_count,omitempty"`
	Mean              float64 `json:"mean,omitempty"`
	Stddev            float64 `json:"stddev,omitempty"`
}

// Build computes one ColumnProfile per column present in the dataset, in
// dataset (config) order. Pure: neither the dataset nor any prior profile is
// mutated.
func Build(ds *dataset.Dataset) []ColumnProfile {
	rows := ds.RowCount()
	profiles := make([]ColumnProfile, 0, len(ds.Columns))

	for _, col := range ds.Columns {
		p := ColumnProfile{
			Column:   col.Name,
			RowCount: rows,
			Numeric:  col.Type.Numeric(),
		}

		distinct := make(map[string]struct{})
		var samples []float64
		for _, row := range ds.Rows {
			v := row[col.Name]
			if v.TypeErr {
				p.TypeErrorCount++
			}
			if v.Null {
				p.NullCount++
				continue
			}
			distinct[v.Raw] = struct{}{}
			if p.Numeric {
				samples = append(samples, v.Num)
			}
		}
		p.DistinctCount = len(distinct)

		if rows > 0 {
			p.NullFraction = float64(p.NullCount) / float64(rows)
			p.TypeErrorFraction = float64(p.TypeErrorCount) / float64(rows)
		}

		if p.Numeric && len(samples) > 0 {
			p.SampleCount = len(samples)
			p.Mean = mean(samples)
			p.Stddev = stddev(samples, p.Mean)
		}

		profiles = append(profiles, p)
	}

	return profiles
}

// ByColumn indexes profiles by column name.
func ByColumn(profiles []ColumnProfile) map[string]ColumnProfile {
	out := make(map[string]ColumnProfile, len(profiles))
	for _, p := range profiles {
		out[p.Column] = p
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 divisor); 0 for a single value.
func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}
