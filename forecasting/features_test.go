package forecasting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/models"
)

func TestBuildFeatures_AllLagsWithLongHistory(t *testing.T) {
	for _, n := range []int{15, 16, 20, 45} {
		table := BuildFeatures(dailySeries(1, "2025-01-01", rampQuantities(n)...))

		assert.Equal(t,
			[]string{"month_sin", "month_cos", "weekday_sin", "weekday_cos", "lag_1", "lag_3", "lag_7", "lag_14"},
			FeatureNames(table.Features), "n=%d", n)
		assert.Empty(t, table.SkippedLags)
		assert.Equal(t, n-14, table.Len(), "n=%d", n)
		assert.Len(t, table.X, table.Len())
		assert.Len(t, table.Dates, table.Len())
	}
}

func TestBuildFeatures_FiveObservations(t *testing.T) {
	table := BuildFeatures(dailySeries(1, "2025-01-01", 4, 2, 7, 11, 5))

	assert.Equal(t, []string{"month_sin", "month_cos", "weekday_sin", "weekday_cos", "lag_1", "lag_3"}, FeatureNames(table.Features))
	assert.Equal(t, []int{7, 14}, table.SkippedLags)
	require.Equal(t, 2, table.Len())

	// rows start at index 3: quantities 11 then 5
	assert.Equal(t, []float64{11, 5}, table.Y)
	assert.Equal(t, 7.0, table.X[0][4], "lag_1 of row 0")
	assert.Equal(t, 4.0, table.X[0][5], "lag_3 of row 0")
	assert.Equal(t, 11.0, table.X[1][4])
	assert.Equal(t, 2.0, table.X[1][5])
}

func TestBuildFeatures_NoQualifyingLagKeepsAllRows(t *testing.T) {
	table := BuildFeatures(dailySeries(1, "2025-03-10", 6))

	assert.Len(t, table.Features, 4)
	assert.Equal(t, CandidateLags, table.SkippedLags)
	assert.Equal(t, 1, table.Len())
}

func TestBuildFeatures_Empty(t *testing.T) {
	table := BuildFeatures(nil)
	assert.Equal(t, 0, table.Len())
	assert.Len(t, table.Features, 4)
}

func TestBuildFeatures_CalendarEncoding(t *testing.T) {
	// 2025-01-06 is a Monday.
	table := BuildFeatures([]models.SaleRecord{{ItemID: 1, SaleDate: day("2025-01-06"), Quantity: 3}})
	require.Equal(t, 1, table.Len())

	row := table.X[0]
	assert.InDelta(t, math.Sin(2*math.Pi/12), row[0], 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi/12), row[1], 1e-12)
	assert.InDelta(t, 0, row[2], 1e-12)
	assert.InDelta(t, 1, row[3], 1e-12)

	// Sunday is index 6.
	table = BuildFeatures([]models.SaleRecord{{ItemID: 1, SaleDate: day("2025-01-12"), Quantity: 3}})
	assert.InDelta(t, math.Sin(2*math.Pi*6/7), table.X[0][2], 1e-12)
}

func TestBuildFeatures_SortsWithoutMutatingInput(t *testing.T) {
	ordered := dailySeries(1, "2025-01-01", rampQuantities(16)...)
	shuffled := []models.SaleRecord{}
	for i := len(ordered) - 1; i >= 0; i-- {
		shuffled = append(shuffled, ordered[i])
	}
	snapshot := append([]models.SaleRecord(nil), shuffled...)

	fromShuffled := BuildFeatures(shuffled)
	fromOrdered := BuildFeatures(ordered)

	assert.Equal(t, snapshot, shuffled)
	assert.Equal(t, fromOrdered.X, fromShuffled.X)
	assert.Equal(t, fromOrdered.Y, fromShuffled.Y)
}

func TestBuildFeatures_Idempotent(t *testing.T) {
	series := dailySeries(1, "2025-01-01", rampQuantities(20)...)
	first := BuildFeatures(series)
	second := BuildFeatures(series)
	assert.Equal(t, first.X, second.X)
	assert.Equal(t, first.Y, second.Y)
}

func TestSortSeries_StableForEqualDates(t *testing.T) {
	d := day("2025-02-01")
	series := []models.SaleRecord{
		{ItemID: 1, SaleDate: d.AddDate(0, 0, 1), Quantity: 9},
		{ItemID: 1, SaleDate: d, Quantity: 1},
		{ItemID: 1, SaleDate: d, Quantity: 2},
	}
	sorted := SortSeries(series)
	assert.Equal(t, []int{1, 2, 9}, []int{sorted[0].Quantity, sorted[1].Quantity, sorted[2].Quantity})
}

func TestBuildFeatures_EveryRowMatchesFeatureWidth(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 15, 30} {
		table := BuildFeatures(dailySeries(1, "2025-01-01", rampQuantities(n)...))
		for i, row := range table.X {
			require.NotNil(t, row, "n=%d row=%d", n, i)
			assert.Len(t, row, len(table.Features), "n=%d row=%d", n, i)
		}
	}
}

func TestBuildRow_UnknownFeature(t *testing.T) {
	features := append([]Feature{}, calendarFeatures...)
	features = append(features, Feature{Name: "day_of_year"})

	_, err := buildRow(features, day("2025-01-01"), func(int) float64 { return 0 })
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
