package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
)

// Column pairs a column name with its declared type.
type Column struct {
	Name string
	Type config.ColumnType
}

// Dataset is an ordered, typed view of a tabular source.
//
// Columns holds the configured columns present in the source, in config
// order. Missing holds configured columns absent from the source header;
// they carry no values and are reported downstream as schema violations.
// Source columns not named in the config are dropped at read time.
type Dataset struct {
	Columns []Column
	Missing []string
	Rows    []map[string]Value
}

// RowCount returns the number of data rows (header excluded).
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ReadCSV loads and types a CSV file against the configured column rules.
//
// The header row is required. Header names are trimmed of surrounding
// whitespace and a leading UTF-8 BOM is stripped, so files exported from
// spreadsheet tools round-trip cleanly. Ragged rows are an error.
func ReadCSV(path string, cols []config.ColumnRule) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source csv: %w", err)
	}
	defer f.Close()

	ds, err := readCSV(f, cols)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

func readCSV(r io.Reader, cols []config.ColumnRule) (*Dataset, error) {
	// UTF8BOM: consume a BOM if present, plain UTF-8 otherwise.
	decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1 // length checked against the header below

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("source has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	headerIndex := make(map[string]int, len(header))
	for i, name := range header {
		headerIndex[name] = i
	}

	ds := &Dataset{}
	colIndex := make(map[string]int, len(cols)) // column name -> source field index
	for _, rule := range cols {
		idx, ok := headerIndex[rule.Name]
		if !ok {
			ds.Missing = append(ds.Missing, rule.Name)
			continue
		}
		ds.Columns = append(ds.Columns, Column{Name: rule.Name, Type: rule.Type})
		colIndex[rule.Name] = idx
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		line++
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", line, len(record), len(header))
		}

		row := make(map[string]Value, len(ds.Columns))
		for _, col := range ds.Columns {
			row[col.Name] = coerce(record[colIndex[col.Name]], col.Type)
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}
