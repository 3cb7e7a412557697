package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"salesforecast/models"
)

// GeminiAnalyst asks a Gemini model to explain a forecast.
type GeminiAnalyst struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    *zap.Logger
	now    func() time.Time
}

func NewGeminiAnalyst(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*GeminiAnalyst, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
	}

	return &GeminiAnalyst{client: client, model: model, log: log, now: time.Now}, nil
}

func (a *GeminiAnalyst) Close() error {
	return a.client.Close()
}

func (a *GeminiAnalyst) Analyze(ctx context.Context, points []models.ForecastPoint) (*models.AiAnalysis, error) {
	prompt := buildPrompt(points, a.now())

	start := time.Now()
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	a.log.Debug("gemini analysis received", zap.Duration("elapsed", time.Since(start)))

	text := responseText(resp)
	analysis, err := parseAnalysis(text)
	if err != nil {
		a.log.Warn("could not parse gemini response", zap.String("raw", text), zap.Error(err))
		return nil, err
	}
	return analysis, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
