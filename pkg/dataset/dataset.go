// Package dataset parses tabular files into an in-memory representation
// suitable for loading into a SQL session. The schema is unknown ahead of
// time; column names and types come from the file itself.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// Dataset holds one parsed tabular file. Rows are kept as strings; type
// hints inform how the SQL layer declares and converts columns.
type Dataset struct {
	Columns []string
	Types   []models.ColumnType
	Rows    [][]string
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// typeInferenceSampleSize caps how many rows are examined per column when
// guessing a type. Files can be large; the guess stabilizes quickly.
const typeInferenceSampleSize = 100

// ParseCSV reads a CSV byte stream into a Dataset. The first record is the
// header. Ragged rows are tolerated: short rows are padded with empty
// strings, long rows truncated to the header width.
func ParseCSV(data []byte) (*Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("parse csv: %w", apperrors.ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}

	columns := normalizeHeader(header)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, fitRow(record, len(columns)))
	}

	ds := &Dataset{
		Columns: columns,
		Rows:    rows,
	}
	ds.Types = inferColumnTypes(ds)
	return ds, nil
}

// normalizeHeader trims whitespace and BOM from column names and replaces
// blank or duplicate names so every column is addressable.
func normalizeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		key := strings.ToLower(name)
		if n, dup := seen[key]; dup {
			seen[key] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[key] = 1
		}
		out[i] = name
	}
	return out
}

func fitRow(record []string, width int) []string {
	row := make([]string, width)
	for i := range row {
		if i < len(record) {
			row[i] = strings.TrimSpace(record[i])
		}
	}
	return row
}

// inferColumnTypes guesses a coarse type per column from a sample of
// non-empty values. A column is only as specific as every sampled value
// allows; anything mixed falls back to text.
func inferColumnTypes(d *Dataset) []models.ColumnType {
	types := make([]models.ColumnType, len(d.Columns))
	for col := range d.Columns {
		types[col] = inferType(d, col)
	}
	return types
}

func inferType(d *Dataset, col int) models.ColumnType {
	sampled := 0
	allInteger := true
	allNumeric := true
	allDatetime := true

	for _, row := range d.Rows {
		if sampled >= typeInferenceSampleSize {
			break
		}
		v := row[col]
		if v == "" {
			continue
		}
		sampled++

		if allInteger {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInteger = false
			}
		}
		if allNumeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allNumeric = false
			}
		}
		if allDatetime && !looksLikeDate(v) {
			allDatetime = false
		}
		if !allInteger && !allNumeric && !allDatetime {
			break
		}
	}

	if sampled == 0 {
		return models.ColumnTypeText
	}
	switch {
	case allInteger:
		return models.ColumnTypeInteger
	case allNumeric:
		return models.ColumnTypeNumeric
	case allDatetime:
		return models.ColumnTypeDatetime
	default:
		return models.ColumnTypeText
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-Jan-2006",
	"Jan 2, 2006",
}

func looksLikeDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
