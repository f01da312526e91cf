// Package incident provides SQLite-backed append-only storage for pipeline
// run records.
//
// Each pipeline run attempt produces exactly one Incident: its stage, final
// status, the violations that failed it, and any config adjustments healing
// applied. Records are append-only - there is no update or delete path - and
// all ordering uses the logical seq column rather than timestamps, so
// listings are deterministic.
//
// A failed append is a fatal error for the run. The run logger is the audit
// trail for self-healing; losing a record silently would defeat it.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package incident
