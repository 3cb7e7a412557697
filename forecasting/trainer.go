package forecasting

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
)

// TrainConfig controls how a per-item model is fit.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Hidden       []int
	// Seed makes weight initialization and shuffling reproducible. When nil,
	// every fit is randomized and predictions are only approximately stable.
	Seed *int64
}

// DefaultTrainConfig returns the 64→32 network trained for 50 epochs.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:       50,
		BatchSize:    32,
		LearningRate: 0.001,
		Hidden:       []int{64, 32},
	}
}

func (c TrainConfig) rng() *rand.Rand {
	if c.Seed != nil {
		s := uint64(*c.Seed)
		return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Model bundles everything needed to score one item: the regressor, the scaler
// fit on its training inputs and the ordered feature list both were built from.
// It lives for a single forecast run.
type Model struct {
	Regressor Regressor
	Scaler    *Scaler
	Features  []Feature
	// Loss is the mean squared error of the final training epoch.
	Loss float64
}

// Train standardizes the table and fits a fresh network on it.
func Train(ctx context.Context, table *FeatureTable, cfg TrainConfig) (*Model, error) {
	if table.Len() == 0 {
		return nil, ErrInsufficientData
	}
	if len(table.X) != len(table.Y) {
		return nil, fmt.Errorf("%d feature rows but %d targets: %w", len(table.X), len(table.Y), ErrShapeMismatch)
	}

	scaler, err := FitScaler(table.X)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	if scaler.Width() != len(table.Features) {
		return nil, fmt.Errorf("scaler width %d, %d features: %w", scaler.Width(), len(table.Features), ErrShapeMismatch)
	}
	scaled, err := scaler.Transform(table.X)
	if err != nil {
		return nil, fmt.Errorf("scale training rows: %w", err)
	}

	rng := cfg.rng()
	network := NewNetwork(scaler.Width(), cfg.Hidden, rng)
	loss, err := network.Fit(ctx, scaled, table.Y, cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("fit network: %w", err)
	}

	return &Model{
		Regressor: network,
		Scaler:    scaler,
		Features:  slices.Clone(table.Features),
		Loss:      loss,
	}, nil
}
