package forecasting

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salesforecast/models"
)

// ModelFitter produces a model for one item's feature table. It is the seam
// where a cache keyed by item and data fingerprint could be introduced.
type ModelFitter interface {
	Fit(ctx context.Context, itemID int64, table *FeatureTable) (*Model, error)
}

// FreshFitter trains a new model on every call.
type FreshFitter struct {
	Config TrainConfig
}

func (f FreshFitter) Fit(ctx context.Context, _ int64, table *FeatureTable) (*Model, error) {
	return Train(ctx, table, f.Config)
}

// ItemSeries is the sales history of a single item.
type ItemSeries struct {
	ItemID  int64
	Records []models.SaleRecord
}

// GroupByItem partitions sales by item id, keeping items in first-seen order
// and records in input order within each item.
func GroupByItem(sales []models.SaleRecord) []ItemSeries {
	index := make(map[int64]int)
	var groups []ItemSeries
	for _, s := range sales {
		i, ok := index[s.ItemID]
		if !ok {
			i = len(groups)
			index[s.ItemID] = i
			groups = append(groups, ItemSeries{ItemID: s.ItemID})
		}
		groups[i].Records = append(groups[i].Records, s)
	}
	return groups
}

// Pipeline runs feature building, training and forecasting for every item.
type Pipeline struct {
	log         *zap.Logger
	fitter      ModelFitter
	recorder    Recorder
	workers     int
	itemTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTrainConfig makes the pipeline train fresh models with cfg.
func WithTrainConfig(cfg TrainConfig) Option {
	return func(p *Pipeline) { p.fitter = FreshFitter{Config: cfg} }
}

// WithFitter replaces the model source.
func WithFitter(f ModelFitter) Option {
	return func(p *Pipeline) { p.fitter = f }
}

// WithWorkers bounds how many items are processed concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithItemTimeout caps the time spent on one item. Zero disables the limit.
func WithItemTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.itemTimeout = d }
}

// WithRecorder reports item outcomes and timings to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// NewPipeline returns a pipeline that trains fresh default models on all CPUs.
func NewPipeline(log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		log:      log,
		fitter:   FreshFitter{Config: DefaultTrainConfig()},
		recorder: nopRecorder{},
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run forecasts horizon days for every item in sales. Items that lack history
// or fail are skipped; the result is ordered by item (first seen) then date.
// An empty input yields an empty, non-nil result. Only cancellation of ctx
// fails the whole run.
func (p *Pipeline) Run(ctx context.Context, sales []models.SaleRecord, horizon int) ([]models.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}
	start := time.Now()
	log := p.log.With(zap.String("run_id", uuid.NewString()))
	groups := GroupByItem(sales)

	results := make([][]models.ForecastPoint, len(groups))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, series := range groups {
		g.Go(func() error {
			results[i] = p.forecastItem(ctx, log, series, horizon)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast run: %w", err)
	}

	points := make([]models.ForecastPoint, 0, len(groups)*horizon)
	for _, r := range results {
		points = append(points, r...)
	}
	p.recorder.RunObserved(len(groups), time.Since(start))
	log.Info("forecast run finished",
		zap.Int("items", len(groups)),
		zap.Int("points", len(points)),
		zap.Int("horizon_days", horizon),
		zap.Duration("elapsed", time.Since(start)),
	)
	return points, nil
}

func (p *Pipeline) forecastItem(ctx context.Context, log *zap.Logger, series ItemSeries, horizon int) (points []models.ForecastPoint) {
	log = log.With(zap.Int64("item_id", series.ItemID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("item forecast panicked", zap.Any("panic", r))
			p.recorder.ItemCompleted(OutcomeFailed)
			points = nil
		}
	}()

	if p.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.itemTimeout)
		defer cancel()
	}

	table := BuildFeatures(series.Records)
	if len(table.SkippedLags) > 0 {
		log.Debug("not enough history for some lags", zap.Ints("skipped_lags", table.SkippedLags))
	}
	if table.Len() < 1 {
		log.Info("skipping item, no usable rows", zap.Int("records", len(series.Records)))
		p.recorder.ItemCompleted(OutcomeInsufficientData)
		return nil
	}

	trainStart := time.Now()
	model, err := p.fitter.Fit(ctx, series.ItemID, table)
	p.recorder.TrainingObserved(time.Since(trainStart))
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = OutcomeTimeout
		}
		log.Warn("skipping item, training failed", zap.String("outcome", string(outcome)), zap.Error(err))
		p.recorder.ItemCompleted(outcome)
		return nil
	}

	points, err = Forecast(model, series.Records, horizon)
	if err != nil {
		log.Warn("skipping item, scoring failed", zap.Error(err))
		p.recorder.ItemCompleted(OutcomeFailed)
		return nil
	}
	for i := range points {
		points[i].ItemID = series.ItemID
	}
	log.Debug("item forecast ready",
		zap.Strings("features", FeatureNames(model.Features)),
		zap.Int("rows", table.Len()),
		zap.Float64("loss", model.Loss),
	)
	p.recorder.ItemCompleted(OutcomeForecast)
	return points
}
