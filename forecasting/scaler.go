package forecasting

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes each feature column to zero mean and unit variance.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler computes per-column mean and population standard deviation.
// Constant columns get a scale of 1 so they transform to zero.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 {
		return nil, ErrInsufficientData
	}
	width := len(X[0])
	s := &Scaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	column := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			if len(row) != width {
				return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), width, ErrShapeMismatch)
			}
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Width is the number of columns the scaler was fit on.
func (s *Scaler) Width() int { return len(s.Mean) }

// Transform returns a standardized copy of X.
func (s *Scaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != s.Width() {
			return nil, fmt.Errorf("row %d has %d columns, scaler expects %d: %w", i, len(row), s.Width(), ErrShapeMismatch)
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = scaled
	}
	return out, nil
}
