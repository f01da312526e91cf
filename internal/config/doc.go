// Package config defines the strongly-typed pipeline configuration.
//
// The configuration is a human-editable YAML document mapping columns to
// quality constraints, plus dataset-level thresholds (row count minimum),
// drift settings, and the healing policy. Loading is two-phase:
//
//  1. Strict YAML decode into typed structs (unknown fields rejected)
//  2. Unification with an embedded CUE schema (bounds and enums checked)
//
// Both phases fail fast with a typed Error carrying a stable code, so a
// malformed config never reaches a pipeline stage.
//
// The loaded Config flows through the pipeline by value. Only the healing
// stage produces a new Config, and only Save persists one - atomically, and
// only after re-checking the persisted-state invariant (fractional thresholds
// in [0,1], non-negative row count minimum).
package config
