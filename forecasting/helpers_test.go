package forecasting

import (
	"time"

	"salesforecast/models"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// dailySeries returns n consecutive daily records for item starting at start.
func dailySeries(item int64, start string, quantities ...int) []models.SaleRecord {
	first := day(start)
	out := make([]models.SaleRecord, len(quantities))
	for i, q := range quantities {
		out[i] = models.SaleRecord{ItemID: item, SaleDate: first.AddDate(0, 0, i), Quantity: q}
	}
	return out
}

func rampQuantities(n int) []int {
	q := make([]int, n)
	for i := range q {
		q[i] = (i*7)%11 + 1
	}
	return q
}

func seed(v int64) *int64 { return &v }

func fastTrainConfig() TrainConfig {
	cfg := DefaultTrainConfig()
	cfg.Epochs = 5
	cfg.Seed = seed(42)
	return cfg
}
