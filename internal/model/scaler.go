package model

import (
	"fmt"
	"math"
)

// Scaler standardises each feature to zero mean and unit variance using the
// population standard deviation of the data it was fitted on.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes per-feature mean and standard deviation. A feature with zero
// variance gets a scale of 1 so it transforms to 0.
func (s *Scaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return ErrNoSamples
	}
	width := len(x[0])
	mean := make([]float64, width)
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("sample %d has %d features, expected %d", i, len(row), width)
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(x))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, width)
	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	s.Mean = mean
	s.Scale = scale
	return nil
}

// Transform returns a standardised copy of x.
func (s *Scaler) Transform(x [][]float64) ([][]float64, error) {
	if s == nil || s.Mean == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("sample %d has %d features, scaler fitted on %d", i, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits the scaler on x and returns the transformed data.
func (s *Scaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
