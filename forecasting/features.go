package forecasting

import (
	"fmt"
	"math"
	"slices"
	"time"

	"salesforecast/models"
)

// CandidateLags are the history offsets tried, in order, for lag features.
var CandidateLags = []int{1, 3, 7, 14}

const (
	monthAngle   = 2 * math.Pi / 12
	weekdayAngle = 2 * math.Pi / 7
)

// Feature describes one column of a FeatureTable. Lag is zero for calendar features.
type Feature struct {
	Name string
	Lag  int
}

// IsLag reports whether the feature is a shifted quantity.
func (f Feature) IsLag() bool { return f.Lag > 0 }

var calendarFeatures = []Feature{
	{Name: "month_sin"},
	{Name: "month_cos"},
	{Name: "weekday_sin"},
	{Name: "weekday_cos"},
}

func lagFeature(lag int) Feature {
	return Feature{Name: fmt.Sprintf("lag_%d", lag), Lag: lag}
}

// FeatureNames lists the column names in order.
func FeatureNames(features []Feature) []string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.Name
	}
	return names
}

// FeatureTable is the supervised-learning view of one item's history.
type FeatureTable struct {
	Features []Feature
	X        [][]float64
	Y        []float64
	Dates    []time.Time
	// SkippedLags holds candidate lags dropped because the history is too short.
	SkippedLags []int
}

// Len returns the number of usable rows.
func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Y)
}

// SortSeries returns a copy of series ordered by sale date. Ties keep their input order.
func SortSeries(series []models.SaleRecord) []models.SaleRecord {
	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b models.SaleRecord) int {
		return a.SaleDate.Compare(b.SaleDate)
	})
	return sorted
}

// weekdayIndex maps Monday to 0 and Sunday to 6.
func weekdayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func calendarValue(name string, d time.Time) (float64, bool) {
	month := float64(d.Month())
	weekday := float64(weekdayIndex(d))
	switch name {
	case "month_sin":
		return math.Sin(month * monthAngle), true
	case "month_cos":
		return math.Cos(month * monthAngle), true
	case "weekday_sin":
		return math.Sin(weekday * weekdayAngle), true
	case "weekday_cos":
		return math.Cos(weekday * weekdayAngle), true
	}
	return 0, false
}

// buildRow fills one row in feature order. lagValue resolves lag features.
func buildRow(features []Feature, d time.Time, lagValue func(lag int) float64) ([]float64, error) {
	row := make([]float64, len(features))
	for i, f := range features {
		if f.IsLag() {
			row[i] = lagValue(f.Lag)
			continue
		}
		v, ok := calendarValue(f.Name, d)
		if !ok {
			return nil, fmt.Errorf("unknown feature %q: %w", f.Name, ErrShapeMismatch)
		}
		row[i] = v
	}
	return row, nil
}

// BuildFeatures derives calendar and lag features from one item's series.
// A lag L is only used when the series has at least L+1 observations; the first
// max(lag) rows are dropped because their shifted values are undefined.
// The input slice is not modified.
func BuildFeatures(series []models.SaleRecord) *FeatureTable {
	sorted := SortSeries(series)
	n := len(sorted)

	table := &FeatureTable{Features: slices.Clone(calendarFeatures)}
	maxLag := 0
	for _, lag := range CandidateLags {
		if n < lag+1 {
			table.SkippedLags = append(table.SkippedLags, lag)
			continue
		}
		table.Features = append(table.Features, lagFeature(lag))
		maxLag = max(maxLag, lag)
	}

	for i := maxLag; i < n; i++ {
		// table.Features only holds calendarFeatures and lag features, so buildRow cannot fail.
		row, _ := buildRow(table.Features, sorted[i].SaleDate, func(lag int) float64 {
			return float64(sorted[i-lag].Quantity)
		})
		table.X = append(table.X, row)
		table.Y = append(table.Y, float64(sorted[i].Quantity))
		table.Dates = append(table.Dates, sorted[i].SaleDate)
	}
	return table
}
