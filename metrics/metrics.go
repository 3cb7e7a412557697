package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"salesforecast/forecasting"
)

const namespace = "salesforecast"

// Metrics exposes forecast pipeline instruments.
type Metrics struct {
	itemOutcomes     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	runDuration      prometheus.Histogram
	runItems         prometheus.Histogram
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		itemOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_items_total",
			Help:      "Items processed by the forecast pipeline, by outcome.",
		}, []string{"outcome"}),
		trainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_training_seconds",
			Help:      "Time spent fitting one item's model.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_run_seconds",
			Help:      "Wall time of a full forecast run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		runItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_run_items",
			Help:      "Distinct items seen per forecast run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	for _, c := range []prometheus.Collector{m.itemOutcomes, m.trainingDuration, m.runDuration, m.runItems} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ItemCompleted(outcome forecasting.Outcome) {
	m.itemOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) TrainingObserved(d time.Duration) {
	m.trainingDuration.Observe(d.Seconds())
}

func (m *Metrics) RunObserved(items int, d time.Duration) {
	m.runDuration.Observe(d.Seconds())
	m.runItems.Observe(float64(items))
}

var _ forecasting.Recorder = (*Metrics)(nil)
