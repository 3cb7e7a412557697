package models

import "time"

// ForecastPoint is the predicted demand for one item on one future day.
type ForecastPoint struct {
	ItemID            int64   `json:"item_id"`
	Date              string  `json:"date"`
	PredictedQuantity float64 `json:"predicted_quantity"`
}

// ForecastPeriod defines the start and end dates for a forecast.
type ForecastPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ForecastResponse is the complete structure for the forecast API response.
type ForecastResponse struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	HorizonDays int             `json:"horizonDays"`
	Period      *ForecastPeriod `json:"forecastPeriod,omitempty"`
	Forecast    []ForecastPoint `json:"forecast"`
}

// DashboardResponse combines the forecast with the most recent sales.
type DashboardResponse struct {
	Forecast  []ForecastPoint `json:"forecast"`
	PastSales []PastSale      `json:"past_sales"`
}
