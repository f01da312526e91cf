package drift

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/profile"
)

// Stats is the persisted numeric fingerprint of one column.
type Stats struct {
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"std"`
}

// Baseline is the reference profile drift comparisons run against.
type Baseline struct {
	Columns map[string]Stats `json:"columns"`
}

// Modes for a drift report.
const (
	ModeBaselineCreated = "baseline_created"
	ModeComparison      = "comparison"
	ModeDisabled        = "disabled"
)

// DriftedColumn describes one column whose mean moved past the tolerance.
type DriftedColumn struct {
	Column         string  `json:"column"`
	BaselineMean   float64 `json:"base_mean"`
	CurrentMean    float64 `json:"current_mean"`
	RelativeChange float64 `json:"relative_change"`
}

// Report is the outcome of one drift check.
//
// Drift is advisory: a drifted column is recorded on the run's incident but
// does not fail the run. Healing exists for threshold violations; a genuine
// distribution shift is something an operator reviews.
type Report struct {
	Mode    string          `json:"mode"`
	Drifted []DriftedColumn `json:"drifted_columns,omitempty"`
}

// Detect compares the current numeric profiles against the persisted
// baseline.
//
// With no baseline on disk, the current profiles become the baseline and the
// report mode is baseline_created. Columns absent from the baseline, and
// columns whose baseline mean is 0, are skipped (relative change is
// undefined). Detection order follows profile (config) order.
func Detect(profiles []profile.ColumnProfile, cfg config.DriftConfig) (Report, error) {
	if cfg.BaselinePath == "" {
		return Report{Mode: ModeDisabled}, nil
	}

	current := buildStats(profiles)

	baseline, err := readBaseline(cfg.BaselinePath)
	if os.IsNotExist(err) {
		if werr := writeBaseline(cfg.BaselinePath, Baseline{Columns: current}); werr != nil {
			return Report{}, werr
		}
		return Report{Mode: ModeBaselineCreated}, nil
	}
	if err != nil {
		return Report{}, err
	}

	rep := Report{Mode: ModeComparison}
	for _, p := range profiles {
		cur, ok := current[p.Column]
		if !ok {
			continue
		}
		base, ok := baseline.Columns[p.Column]
		if !ok || base.Mean == 0 {
			continue
		}
		rel := math.Abs(cur.Mean-base.Mean) / math.Abs(base.Mean)
		if rel > cfg.MeanRelativeTolerance {
			rep.Drifted = append(rep.Drifted, DriftedColumn{
				Column:         p.Column,
				BaselineMean:   base.Mean,
				CurrentMean:    cur.Mean,
				RelativeChange: rel,
			})
		}
	}
	return rep, nil
}

func buildStats(profiles []profile.ColumnProfile) map[string]Stats {
	out := make(map[string]Stats)
	for _, p := range profiles {
		if !p.Numeric || p.SampleCount == 0 {
			continue
		}
		out[p.Column] = Stats{Mean: p.Mean, Stddev: p.Stddev}
	}
	return out
}

func readBaseline(path string) (Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Baseline{}, err
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{}, fmt.Errorf("decoding baseline profile %s: %w", path, err)
	}
	return b, nil
}

func writeBaseline(path string, b Baseline) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding baseline profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating baseline directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".baseline-*.json")
	if err != nil {
		return fmt.Errorf("creating baseline temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing baseline profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing baseline temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing baseline profile: %w", err)
	}
	return nil
}
