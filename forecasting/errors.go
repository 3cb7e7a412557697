package forecasting

import "errors"

var (
	// ErrInsufficientData means the item has too little history to train on.
	ErrInsufficientData = errors.New("not enough data to train a model")
	// ErrShapeMismatch means a feature row does not match the width the scaler or model was fit on.
	ErrShapeMismatch = errors.New("feature shape mismatch")
	// ErrInvalidHorizon is returned for a non-positive forecast horizon.
	ErrInvalidHorizon = errors.New("horizon must be positive")
)
