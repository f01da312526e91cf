package incident

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/drift"
)

// List returns all incidents ordered by (seq, id) for deterministic output.
func (s *Store) List(ctx context.Context) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, pipeline, stage, status, description, row_count,
		       violations, adjustments, drift, created_at
		FROM incidents
		ORDER BY seq ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("list incidents: %w", err)
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return out, nil
}

// Count returns the number of logged incidents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

func scanIncident(rows *sql.Rows) (Incident, error) {
	var (
		inc         Incident
		status      string
		violations  string
		adjustments string
		driftJSON   string
		createdAt   string
	)
	err := rows.Scan(
		&inc.ID, &inc.Seq, &inc.Pipeline, &inc.Stage, &status, &inc.Description,
		&inc.RowCount, &violations, &adjustments, &driftJSON, &createdAt,
	)
	if err != nil {
		return Incident{}, fmt.Errorf("scan: %w", err)
	}
	inc.Status = Status(status)

	if err := json.Unmarshal([]byte(violations), &inc.Violations); err != nil {
		return Incident{}, fmt.Errorf("decode violations for %s: %w", inc.ID, err)
	}
	if err := json.Unmarshal([]byte(adjustments), &inc.Adjustments); err != nil {
		return Incident{}, fmt.Errorf("decode adjustments for %s: %w", inc.ID, err)
	}
	if driftJSON != "" && driftJSON != "null" {
		var rep drift.Report
		if err := json.Unmarshal([]byte(driftJSON), &rep); err != nil {
			return Incident{}, fmt.Errorf("decode drift report for %s: %w", inc.ID, err)
		}
		inc.Drift = &rep
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Incident{}, fmt.Errorf("parse created_at for %s: %w", inc.ID, err)
	}
	inc.CreatedAt = ts

	return inc, nil
}
