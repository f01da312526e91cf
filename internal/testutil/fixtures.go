package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CleanCustomersCSV is a dataset that passes the fixture config: no nulls in
// required columns, age nulls within threshold, all cells well-typed.
const CleanCustomersCSV = `customer_id,name,age,signup_date,monthly_spend
1,Alice Johnson,34,2023-01-15,120.50
2,Bob Smith,29,2023-02-03,89.99
3,Carol White,41,2023-02-18,210.00
4,Dan Brown,37,2023-03-07,55.25
5,Eve Davis,31,2023-03-22,132.40
6,Frank Moore,45,2023-04-09,78.10
7,Grace Lee,28,2023-04-27,160.75
8,Henry Clark,39,2023-05-14,95.00
9,Iris Hall,33,2023-06-01,143.60
10,Jack Young,36,2023-06-19,110.30
`

// BrokenCustomersCSV fails the fixture config: the age column is 50% null
// (four empty cells plus the unparseable "thirty") and its surviving values
// have drifted well above the clean dataset's mean.
const BrokenCustomersCSV = `customer_id,name,age,signup_date,monthly_spend
11,Kara Owens,62,2023-07-02,140.20
12,Liam Patel,,2023-07-11,98.75
13,Mia Torres,68,2023-07-19,185.00
14,Noah Reed,,2023-07-28,67.40
15,Olive Kim,thirty,2023-08-05,122.90
16,Paul Diaz,71,2023-08-14,88.15
17,Quinn Fox,,2023-08-23,150.60
18,Ruth Cole,59,2023-09-01,73.35
19,Sam Wu,,2023-09-10,0
20,Tara Bell,65,2023-09-18,115.45
`

// CustomersConfigYAML is the fixture pipeline config used across packages.
// Paths are relative to the config's directory.
const CustomersConfigYAML = `pipeline: customers_pipeline
source_path: customers_v1.csv
incidents_path: incidents.db
warehouse:
  path: warehouse.db
  table: customers
quality:
  row_count_min: 5
drift:
  baseline_path: baseline_profile.json
  mean_relative_tolerance: 0.5
healing:
  margin: 0.1
  precision: 2
  max_null_fraction_cap: 0.8
columns:
  - name: customer_id
    type: int
    required: true
  - name: name
    type: string
    max_null_fraction: 0.1
  - name: age
    type: int
    max_null_fraction: 0.3
  - name: signup_date
    type: string
  - name: monthly_spend
    type: float
    max_null_fraction: 0.2
`

// WriteFile writes content under dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteDemoDir lays out a complete demo directory (config plus both
// datasets) in a temp dir and returns its path.
func WriteDemoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "config.yml", CustomersConfigYAML)
	WriteFile(t, dir, "customers_v1.csv", CleanCustomersCSV)
	WriteFile(t, dir, "customers_v2_broken.csv", BrokenCustomersCSV)
	return dir
}
