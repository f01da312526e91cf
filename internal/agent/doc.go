// Package agent drives the self-healing validation pipeline.
//
// ARCHITECTURE:
//
// Single-threaded batch loop:
// The agent runs one attempt at a time in the calling goroutine. There is no
// concurrency and no shared mutable state; the only resources are the config
// file and the stores, each touched by exactly one process per invocation.
//
// State machine (terminal after one rerun):
//
//	idle -> profiling -> evaluating -> done            (first attempt passes)
//	idle -> profiling -> evaluating -> healing
//	     -> rerunning -> done                          (fail, heal, rerun once)
//
// The rerun is terminal regardless of outcome. Healing never loops: retries
// are capped at one, and the adjuster itself is idempotent, so a dataset the
// widened config still rejects simply ends the run as failed.
//
// Recoverable vs fatal:
// Rule violations (schema, value, row count) are recoverable - they drive
// the heal-and-rerun path. Config write and incident log write failures are
// fatal: they abort the run and are never retried automatically.
package agent
