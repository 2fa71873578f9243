package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadCSV reads a CSV file whose first row is the header.
// Rows with a different field count than the header, or with any blank
// field, are dropped and counted in the report.
func LoadCSV(path string) (*Table, LoadReport, error) {
	report := LoadReport{Path: path}

	file, err := os.Open(path)
	if err != nil {
		return nil, report, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	t, err := readCSV(file, &report)
	if err != nil {
		return nil, report, err
	}
	return t, report, nil
}

func readCSV(r io.Reader, report *LoadReport) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	// Strip a UTF-8 byte order mark left by spreadsheet exports.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Dropped++
				continue
			}
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		if !usable(row, len(header)) {
			report.Dropped++
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		rows = append(rows, row)
	}

	report.Kept = len(rows)
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return NewTable(header, rows), nil
}
