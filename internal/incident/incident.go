package incident

import (
	"time"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/drift"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/heal"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/rules"
)

// Status of one pipeline run attempt.
type Status string

const (
	// StatusSuccess: the attempt passed all rules without prior healing.
	StatusSuccess Status = "success"

	// StatusFailed: the attempt had rule violations (first attempt, or a rerun
	// that still fails after healing).
	StatusFailed Status = "failed"

	// StatusHealed: the rerun passed after config adjustments were applied.
	StatusHealed Status = "healed"
)

// Incident is one append-only record describing a single run attempt.
//
// Seq is a logical clock assigned by the store at append time; reads order by
// (seq, id) so listings are deterministic regardless of wall time. Records
// are never updated or deleted.
type Incident struct {
	ID          string            `json:"id"` // UUIDv7 run id
	Seq         int64             `json:"seq"`
	Pipeline    string            `json:"pipeline"`
	Stage       string            `json:"stage"`
	Status      Status            `json:"status"`
	Description string            `json:"description,omitempty"`
	RowCount    int               `json:"row_count"`
	Violations  []rules.Violation `json:"violations,omitempty"`
	Adjustments []heal.Adjustment `json:"adjustments,omitempty"`
	Drift       *drift.Report     `json:"drift,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
