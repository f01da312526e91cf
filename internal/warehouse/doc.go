// Package warehouse loads the typed dataset into a SQLite table with
// replace-all semantics. It is the pipeline's load step: downstream
// consumers read the warehouse, never the raw CSV.
package warehouse
