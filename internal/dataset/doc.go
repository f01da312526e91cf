// Package dataset loads tabular CSV sources into typed, ordered datasets.
//
// Loading is schema-driven: the configured column rules decide which source
// columns are kept and how their cells are coerced. Coercion failures do not
// abort the load - the cell becomes null and is flagged as a type error, so
// the quality layer can report it as a violation rather than the reader
// failing mid-file.
package dataset
