// Package model implements the classifier used to predict loan defaults:
// feature extraction, standard scaling, a CART decision tree and the
// evaluation metrics reported after training.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/torosent/loanlens/internal/dataset"
)

var (
	// ErrNotFitted is returned when a scaler or tree is used before fitting.
	ErrNotFitted = errors.New("model is not fitted")
	// ErrNoSamples is returned when fitting on an empty sample set.
	ErrNoSamples = errors.New("no samples to fit")
)

// Samples is a feature matrix with optional labels and the table rows they
// came from.
type Samples struct {
	X       [][]float64
	Y       []int
	Rows    []int
	Skipped int
}

// Features extracts the named feature columns from t. When label is not
// empty the label column is parsed too. Rows with an unparsable feature or
// label are skipped.
func Features(ctx context.Context, t *dataset.Table, columns []string, label string) (Samples, error) {
	var s Samples
	if len(columns) == 0 {
		return s, fmt.Errorf("no feature columns configured")
	}

	featureCols, err := t.Require(columns...)
	if err != nil {
		return s, err
	}
	labelCol := -1
	if label != "" {
		cols, err := t.Require(label)
		if err != nil {
			return s, err
		}
		labelCol = cols[0]
	}

	s.X = make([][]float64, 0, t.Len())
	for i, row := range t.Rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return Samples{}, err
			}
		}
		features, ok := parseRow(row, featureCols)
		if !ok {
			s.Skipped++
			continue
		}
		if labelCol >= 0 {
			y, err := dataset.ParseLabel(row[labelCol])
			if err != nil {
				s.Skipped++
				continue
			}
			s.Y = append(s.Y, y)
		}
		s.X = append(s.X, features)
		s.Rows = append(s.Rows, i)
	}
	return s, nil
}

func parseRow(row []string, cols []int) ([]float64, bool) {
	out := make([]float64, len(cols))
	for j, col := range cols {
		v, err := dataset.ParseFloat(row[col])
		if err != nil {
			return nil, false
		}
		out[j] = v
	}
	return out, true
}
