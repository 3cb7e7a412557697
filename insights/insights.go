package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesforecast/models"
)

// ErrNoContent is returned when the model answers without usable text.
var ErrNoContent = errors.New("no content received from AI")

// Analyst turns a numeric forecast into a short narrative.
type Analyst interface {
	Analyze(ctx context.Context, points []models.ForecastPoint) (*models.AiAnalysis, error)
}

// Totals sums predicted demand per item and finds each item's peak day.
// Items keep the order in which they first appear in points.
func Totals(points []models.ForecastPoint) []models.ItemTotal {
	index := make(map[int64]int)
	sums := []decimal.Decimal{}
	totals := []models.ItemTotal{}
	for _, p := range points {
		i, ok := index[p.ItemID]
		if !ok {
			i = len(totals)
			index[p.ItemID] = i
			totals = append(totals, models.ItemTotal{ItemID: p.ItemID, PeakDate: p.Date, PeakQuantity: p.PredictedQuantity})
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(p.PredictedQuantity))
		if p.PredictedQuantity > totals[i].PeakQuantity {
			totals[i].PeakDate = p.Date
			totals[i].PeakQuantity = p.PredictedQuantity
		}
	}
	for i := range totals {
		totals[i].TotalPredicted = sums[i].Round(2).InexactFloat64()
	}
	return totals
}

const responseFormat = `{"summary":"string","positive_factors":["string",...],"negative_factors":["string",...]}`

// buildPrompt creates the analysis prompt for the generative model.
func buildPrompt(points []models.ForecastPoint, today time.Time) string {
	var totals strings.Builder
	for _, t := range Totals(points) {
		fmt.Fprintf(&totals, "Item %d: %.2f units in total, peak of %.2f units on %s.\n",
			t.ItemID, t.TotalPredicted, t.PeakQuantity, t.PeakDate)
	}

	var daily strings.Builder
	for _, p := range points {
		fmt.Fprintf(&daily, "Item %d on %s: %.2f units.\n", p.ItemID, p.Date, p.PredictedQuantity)
	}
	if daily.Len() == 0 {
		daily.WriteString("No forecast is available.\n")
	}

	return fmt.Sprintf(`
        You are an expert retail data analyst. A neural network has produced the daily demand forecast below.
        Explain what it means for the store in a few sentences and list the factors that push demand up or down.

        **Analysis Context:**
        - Today's Date: %s
        - Summer months are boosted by 30%% and winter months reduced by 10%% in the forecast.

        **Totals per item:**
        %s
        **Daily forecast:**
        %s
        **Required Output:**
        You must provide a single, minified JSON object with the following exact structure. Do not include any markdown formatting, backticks, or explanatory text before or after the JSON object.

        %s
    `, today.Format("2006-01-02"), totals.String(), daily.String(), responseFormat)
}

func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

// parseAnalysis decodes the JSON object embedded in the model's reply.
func parseAnalysis(text string) (*models.AiAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return nil, errors.New("failed to parse AI response format")
	}

	var analysis models.AiAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse AI analysis: %w", err)
	}
	if analysis.PositiveFactors == nil {
		analysis.PositiveFactors = []string{}
	}
	if analysis.NegativeFactors == nil {
		analysis.NegativeFactors = []string{}
	}
	return &analysis, nil
}
