package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed CSV file with a header line.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of column name or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ParseCSV parses delimited content with a header line. Blank lines are
// skipped and every row must have as many fields as the header.
func ParseCSV(content []byte, delimiter rune) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	table := &Table{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		line++

		isEmpty := true
		for _, field := range record {
			if strings.TrimSpace(field) != "" {
				isEmpty = false
				break
			}
		}
		if isEmpty {
			continue
		}

		if table.Header == nil {
			table.Header = record
			continue
		}
		if len(record) != len(table.Header) {
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(record), len(table.Header))
		}
		table.Rows = append(table.Rows, record)
	}

	if table.Header == nil {
		return nil, fmt.Errorf("CSV file is empty or contains no valid data")
	}
	return table, nil
}
