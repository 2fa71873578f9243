package dataset

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// LoadJSON reads a JSON array of objects. The header follows the key order
// of the first object; later objects are aligned to it by key. Objects
// missing a header key, or holding a blank value, are dropped.
func LoadJSON(path string) (*Table, LoadReport, error) {
	report := LoadReport{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, report, fmt.Errorf("open JSON file: %w", err)
	}

	t, err := parseJSON(data, &report)
	if err != nil {
		return nil, report, err
	}
	return t, report, nil
}

func parseJSON(data []byte, report *LoadReport) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode JSON: invalid document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("decode JSON: expected an array of objects")
	}

	var header []string
	var rows [][]string
	var walkErr error

	root.ForEach(func(_, obj gjson.Result) bool {
		if !obj.IsObject() {
			report.Dropped++
			return true
		}
		if header == nil {
			obj.ForEach(func(key, _ gjson.Result) bool {
				header = append(header, key.String())
				return true
			})
			if len(header) == 0 {
				walkErr = fmt.Errorf("decode JSON: first object is empty")
				return false
			}
		}

		values := obj.Map()
		row := make([]string, 0, len(header))
		for _, name := range header {
			v, ok := values[name]
			if !ok || v.Type == gjson.Null {
				row = nil
				break
			}
			row = append(row, v.String())
		}
		if row == nil || !usable(row, len(header)) {
			report.Dropped++
			return true
		}
		rows = append(rows, row)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	report.Kept = len(rows)
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return NewTable(header, rows), nil
}
