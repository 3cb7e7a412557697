package forecasting

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"salesforecast/models"
)

// DateLayout is the ISO 8601 calendar date used in forecast output.
const DateLayout = "2006-01-02"

// SeasonalFactor is the demand multiplier for a calendar month:
// summer peak in June to August, winter trough in December to February.
func SeasonalFactor(month time.Month) float64 {
	switch month {
	case time.June, time.July, time.August:
		return 1.3
	case time.December, time.January, time.February:
		return 0.9
	default:
		return 1
	}
}

// AdjustPrediction applies the seasonal factor for date, clamps at zero and
// rounds to two decimals. Rounding is half away from zero on the shortest
// decimal form of the value, so 2.675 becomes 2.68 even though its binary
// representation is slightly below 2.675.
func AdjustPrediction(raw float64, date time.Time) float64 {
	adjusted := math.Max(raw*SeasonalFactor(date.Month()), 0)
	return decimal.NewFromFloat(adjusted).Round(2).InexactFloat64()
}

// futureDates returns horizon consecutive days after last.
func futureDates(last time.Time, horizon int) []time.Time {
	day := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
	dates := make([]time.Time, horizon)
	for i := range dates {
		dates[i] = day.AddDate(0, 0, i+1)
	}
	return dates
}

// carriedLag is the quantity observed lag steps before the end of a sorted series,
// or zero when the series is shorter than lag. The value stays fixed for the whole
// horizon; predictions are not fed back as lags.
func carriedLag(sorted []models.SaleRecord, lag int) float64 {
	n := len(sorted)
	if n < lag {
		return 0
	}
	return float64(sorted[n-lag].Quantity)
}

// Forecast scores horizon future days for one item with a trained model.
// Points are ordered by date and carry the series' item id.
func Forecast(model *Model, series []models.SaleRecord, horizon int) ([]models.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}
	if len(series) == 0 {
		return nil, ErrInsufficientData
	}
	width := len(model.Features)
	if model.Scaler.Width() != width || model.Regressor.Inputs() != width {
		return nil, fmt.Errorf("features %d, scaler %d, model %d: %w",
			width, model.Scaler.Width(), model.Regressor.Inputs(), ErrShapeMismatch)
	}

	sorted := SortSeries(series)
	last := sorted[len(sorted)-1]
	dates := futureDates(last.SaleDate, horizon)

	rows := make([][]float64, len(dates))
	lagValue := func(lag int) float64 { return carriedLag(sorted, lag) }
	for i, d := range dates {
		row, err := buildRow(model.Features, d, lagValue)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}

	scaled, err := model.Scaler.Transform(rows)
	if err != nil {
		return nil, fmt.Errorf("scale future rows: %w", err)
	}

	points := make([]models.ForecastPoint, len(dates))
	for i, d := range dates {
		raw := model.Regressor.Predict(scaled[i])
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return nil, fmt.Errorf("non-finite prediction for %s", d.Format(DateLayout))
		}
		points[i] = models.ForecastPoint{
			ItemID:            last.ItemID,
			Date:              d.Format(DateLayout),
			PredictedQuantity: AdjustPrediction(raw, d),
		}
	}
	return points, nil
}
