// Package scoring turns loan request rows into scored records held in a carousel.
package scoring

import (
	"context"
	"fmt"

	"github.com/torosent/loanlens/internal/carousel"
	"github.com/torosent/loanlens/internal/dataset"
	"github.com/torosent/loanlens/internal/model"
	"github.com/torosent/loanlens/internal/record"
)

// Predictor predicts a label for each scaled sample.
type Predictor interface {
	Predict(x [][]float64) ([]int, error)
}

// Transformer scales raw feature rows.
type Transformer interface {
	Transform(x [][]float64) ([][]float64, error)
}

// Options configures Score.
type Options struct {
	Features []string
	Scaler   Transformer
	Model    Predictor
}

// Summary counts the outcome of scoring.
type Summary struct {
	Scored   int `json:"scored"`
	Skipped  int `json:"skipped"`
	Defaults int `json:"predicted_defaults"`
	Accepted int `json:"predicted_accepted"`
}

// Score predicts every request row whose features parse and returns the
// resulting records in request order. Rows with unparsable features are
// skipped. When no row is usable the returned carousel is empty.
func Score(ctx context.Context, requests *dataset.Table, opts Options) (*carousel.Carousel[record.Record], Summary, error) {
	var summary Summary
	results := carousel.New[record.Record]()

	if opts.Scaler == nil || opts.Model == nil {
		return nil, summary, fmt.Errorf("scoring requires a fitted scaler and model")
	}

	samples, err := model.Features(ctx, requests, opts.Features, "")
	if err != nil {
		return nil, summary, err
	}
	summary.Skipped = samples.Skipped
	if len(samples.X) == 0 {
		return results, summary, nil
	}

	scaled, err := opts.Scaler.Transform(samples.X)
	if err != nil {
		return nil, summary, fmt.Errorf("scale requests: %w", err)
	}
	predictions, err := opts.Model.Predict(scaled)
	if err != nil {
		return nil, summary, fmt.Errorf("predict requests: %w", err)
	}
	if len(predictions) != len(samples.Rows) {
		return nil, summary, fmt.Errorf("model returned %d predictions for %d requests", len(predictions), len(samples.Rows))
	}

	for i, rowIdx := range samples.Rows {
		row := requests.Rows[rowIdx]
		fields := make([]record.Field, len(requests.Header))
		for j, name := range requests.Header {
			fields[j] = record.Field{Name: name, Value: row[j]}
		}
		rec := record.New(fields, predictions[i])
		results.Add(rec)

		summary.Scored++
		if rec.WillDefault() {
			summary.Defaults++
		} else {
			summary.Accepted++
		}
	}

	return results, summary, nil
}
