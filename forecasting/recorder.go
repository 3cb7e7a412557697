package forecasting

import "time"

// Outcome classifies how a single item's forecast ended.
type Outcome string

const (
	OutcomeForecast         Outcome = "forecast"
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomeTimeout          Outcome = "timeout"
	OutcomeFailed           Outcome = "failed"
)

// Recorder observes pipeline activity. metrics.Metrics implements it.
type Recorder interface {
	ItemCompleted(outcome Outcome)
	TrainingObserved(d time.Duration)
	RunObserved(items int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ItemCompleted(Outcome)         {}
func (nopRecorder) TrainingObserved(time.Duration) {}
func (nopRecorder) RunObserved(int, time.Duration) {}
