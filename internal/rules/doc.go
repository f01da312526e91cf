// Package rules evaluates column profiles against configured quality
// thresholds.
//
// Evaluation is a pure function: profiles plus config in, pass/fail plus an
// ordered violation list out. Each violation carries a stable code, the
// observed value, and the threshold it breached, which is exactly the shape
// the healing layer needs to widen a threshold without re-profiling.
package rules
