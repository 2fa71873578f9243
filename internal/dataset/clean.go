package dataset

import (
	"context"
	"strconv"
	"strings"
)

// AgeFilterResult summarises FilterAge.
type AgeFilterResult struct {
	MaxAge   int `json:"max_age"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped"`
	Remained int `json:"remaining"`
}

// FilterAge keeps rows whose integer age in column is below maxAge.
// Rows at or above maxAge are counted as removed; rows whose age is not an
// integer are skipped without being counted as removed.
func FilterAge(ctx context.Context, t *Table, column string, maxAge int) (*Table, AgeFilterResult, error) {
	result := AgeFilterResult{MaxAge: maxAge}

	cols, err := t.Require(column)
	if err != nil {
		return nil, result, err
	}
	col := cols[0]

	kept := make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, result, err
			}
		}
		age, err := strconv.Atoi(strings.TrimSpace(row[col]))
		if err != nil {
			result.Skipped++
			continue
		}
		if age < maxAge {
			kept = append(kept, row)
		} else {
			result.Removed++
		}
	}

	result.Remained = len(kept)
	return t.with(kept), result, nil
}

// ParseFloat parses a numeric field, tolerating surrounding whitespace.
func ParseFloat(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

// ParseLabel parses an integer class label. Values such as "1.0" are accepted.
func ParseLabel(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}
