// Package dataset loads tabular loan data and applies the cleaning rules
// used before training and scoring.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies the on-disk format of a dataset.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindJSON Kind = "json"
)

var (
	// ErrNoRows is returned when a file has no usable data rows.
	ErrNoRows = errors.New("dataset has no usable rows")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing column")
)

// Table is a header plus rows of string fields, each row exactly as wide as
// the header.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// LoadReport describes what loading kept and dropped.
type LoadReport struct {
	Path    string `json:"path"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
}

// NewTable builds a table from a header and rows. Rows are not copied.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, exists := t.index[name]; !exists {
			t.index[name] = i
		}
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of column name.
func (t *Table) Index(name string) (int, bool) {
	if t.index == nil {
		t.buildIndex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Require returns the positions of every named column, or ErrMissingColumn.
func (t *Table) Require(names ...string) ([]int, error) {
	positions := make([]int, len(names))
	for i, name := range names {
		pos, ok := t.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		positions[i] = pos
	}
	return positions, nil
}

// Value returns the value of column name in row.
func (t *Table) Value(row int, name string) (string, bool) {
	col, ok := t.Index(name)
	if !ok || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	return t.Rows[row][col], true
}

// with returns a table sharing the header and index of t.
func (t *Table) with(rows [][]string) *Table {
	return &Table{Header: t.Header, Rows: rows, index: t.index}
}

// KindFromPath infers the format from the file extension, defaulting to CSV.
func KindFromPath(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return KindJSON
	}
	return KindCSV
}

// Load reads path as kind. An empty kind is inferred from the extension.
func Load(path string, kind Kind) (*Table, LoadReport, error) {
	if kind == "" {
		kind = KindFromPath(path)
	}
	switch Kind(strings.ToLower(string(kind))) {
	case KindCSV:
		return LoadCSV(path)
	case KindJSON:
		return LoadJSON(path)
	default:
		return nil, LoadReport{Path: path}, fmt.Errorf("unsupported dataset type %q: use csv or json", kind)
	}
}

// usable reports whether row matches the header width and has no blank field.
func usable(row []string, width int) bool {
	if len(row) != width {
		return false
	}
	for _, field := range row {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
