package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Table is the parsed tabular shape the pipeline works on: ordered headers
// plus rows keyed by header. Notices carry non-fatal ingest warnings such as
// truncation.
type Table struct {
	Headers   []string
	Rows      []map[string]string
	Truncated bool
	Notices   []string
}

// ReadCSVFile parses one alarm/event export. The delimiter is sniffed from
// the header line (semicolon-separated exports are common in European DCS
// vendors). Ingestion stops at maxRows with a non-fatal truncation notice.
func ReadCSVFile(path string, maxRows int) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return ParseCSV(string(data), maxRows)
}

func ParseCSV(data string, maxRows int) (Table, error) {
	data = strings.TrimPrefix(data, "\ufeff")
	reader := csv.NewReader(strings.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("empty csv input")
	}

	var table Table
	for _, h := range records[0] {
		table.Headers = append(table.Headers, strings.TrimSpace(h))
	}

	for _, record := range records[1:] {
		if len(table.Rows) >= maxRows {
			table.Truncated = true
			table.Notices = append(table.Notices,
				fmt.Sprintf("input truncated to first %d rows (%d rows in file)", maxRows, len(records)-1))
			break
		}
		row := make(map[string]string, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// sniffDelimiter compares semicolons against commas on the first line.
func sniffDelimiter(data string) rune {
	line := data
	if idx := strings.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
