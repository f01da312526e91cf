// Package profile computes per-column statistics over a typed dataset:
// null and type-error fractions, distinct counts, and mean/stddev for
// numeric columns. Profiles are computed fresh for each run and never
// mutated in place.
package profile
