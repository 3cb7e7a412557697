package models

// AiAnalysis contains the qualitative insights from the Gemini model.
type AiAnalysis struct {
	Summary         string   `json:"summary"`
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
}

// ItemTotal is the summed predicted demand of one item over the horizon.
type ItemTotal struct {
	ItemID         int64   `json:"item_id"`
	TotalPredicted float64 `json:"total_predicted"`
	PeakDate       string  `json:"peak_date"`
	PeakQuantity   float64 `json:"peak_quantity"`
}

// ForecastInsightsResponse pairs the numeric forecast with its narrative.
type ForecastInsightsResponse struct {
	ReportName string          `json:"reportName"`
	Totals     []ItemTotal     `json:"totals"`
	Forecast   []ForecastPoint `json:"forecast"`
	AiAnalysis AiAnalysis      `json:"aiAnalysis"`
}
