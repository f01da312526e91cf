package incident

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Append inserts one incident record, assigning the next logical sequence
// number inside the same transaction. Returns the assigned seq.
//
// Append never fails silently: any storage error is returned to the caller,
// who must treat it as fatal for the run (LogWriteFailure). The record itself
// is immutable once written - there is no update path.
//
// Idempotent on ID: appending the same run id twice is a no-op and returns
// the already-assigned seq.
func (s *Store) Append(ctx context.Context, inc Incident) (int64, error) {
	violations, err := marshalField(inc.Violations, "[]")
	if err != nil {
		return 0, fmt.Errorf("append incident: encoding violations: %w", err)
	}
	adjustments, err := marshalField(inc.Adjustments, "[]")
	if err != nil {
		return 0, fmt.Errorf("append incident: encoding adjustments: %w", err)
	}
	driftJSON, err := marshalField(inc.Drift, "null")
	if err != nil {
		return 0, fmt.Errorf("append incident: encoding drift report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append incident: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Idempotency check: same run id appended twice returns the existing seq.
	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM incidents WHERE id = ?`, inc.ID).Scan(&existing)
	if err == nil {
		return existing, tx.Commit()
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM incidents`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("append incident: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO incidents
		(id, seq, pipeline, stage, status, description, row_count, violations, adjustments, drift, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inc.ID,
		seq,
		inc.Pipeline,
		inc.Stage,
		string(inc.Status),
		inc.Description,
		inc.RowCount,
		violations,
		adjustments,
		driftJSON,
		inc.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("append incident: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append incident: commit: %w", err)
	}

	return seq, nil
}

// marshalField JSON-encodes a field, mapping a nil value to its empty form.
func marshalField(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if s == "null" && empty != "null" {
		return empty, nil
	}
	return s, nil
}
