package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"salesforecast/forecasting"
	"salesforecast/insights"
	"salesforecast/models"
	"salesforecast/utils"
)

const (
	maxHorizonDays      = 365
	dashboardSalesLimit = 20
)

func (h *Handler) defaultHorizon() int {
	if h.DefaultHorizon > 0 {
		return h.DefaultHorizon
	}
	return 20
}

func (h *Handler) horizon(c *fiber.Ctx) (int, error) {
	return utils.ParseBoundedInt(c.Query("horizon"), h.defaultHorizon(), 1, maxHorizonDays)
}

// runForecast loads every sale and runs the pipeline over it.
func (h *Handler) runForecast(ctx context.Context, horizon int) ([]models.ForecastPoint, error) {
	sales, err := h.Sales.All(ctx)
	if err != nil {
		return nil, err
	}
	return h.Forecaster.Run(ctx, sales, horizon)
}

func (h *Handler) forecastError(c *fiber.Ctx, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Forecast was cancelled")
	}
	h.logger().Error("error generating forecast", zap.Error(err))
	return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate forecast")
}

func forecastPeriod(points []models.ForecastPoint) *models.ForecastPeriod {
	if len(points) == 0 {
		return nil
	}
	period := &models.ForecastPeriod{StartDate: points[0].Date, EndDate: points[0].Date}
	for _, p := range points[1:] {
		if p.Date < period.StartDate {
			period.StartDate = p.Date
		}
		if p.Date > period.EndDate {
			period.EndDate = p.Date
		}
	}
	return period
}

// HandleGetForecast returns the demand forecast for every item.
// GET /api/v1/forecast?horizon=20
func (h *Handler) HandleGetForecast(c *fiber.Ctx) error {
	horizon, err := h.horizon(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid horizon: "+err.Error())
	}

	points, err := h.runForecast(c.UserContext(), horizon)
	if err != nil {
		return h.forecastError(c, err)
	}
	return successResponse(c, fiber.StatusOK, models.ForecastResponse{
		GeneratedAt: time.Now().UTC(),
		HorizonDays: horizon,
		Period:      forecastPeriod(points),
		Forecast:    points,
	})
}

// HandleGetDashboard returns the forecast together with the latest sales.
// GET /api/v1/dashboard
func (h *Handler) HandleGetDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	points, err := h.runForecast(ctx, h.defaultHorizon())
	if err != nil {
		return h.forecastError(c, err)
	}

	recent, err := h.Sales.Recent(ctx, dashboardSalesLimit)
	if err != nil {
		h.logger().Error("error fetching recent sales", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch sales")
	}
	past := make([]models.PastSale, 0, len(recent))
	for _, s := range recent {
		past = append(past, models.PastSale{
			ItemID:   s.ItemID,
			Date:     s.SaleDate.Format(forecasting.DateLayout),
			Quantity: s.Quantity,
		})
	}
	return successResponse(c, fiber.StatusOK, models.DashboardResponse{Forecast: points, PastSales: past})
}

// HandleGetForecastInsights pairs the forecast with a Gemini narrative.
// GET /api/v1/forecast/insights?horizon=20
func (h *Handler) HandleGetForecastInsights(c *fiber.Ctx) error {
	if h.Analyst == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "AI insights are not configured")
	}
	horizon, err := h.horizon(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid horizon: "+err.Error())
	}

	points, err := h.runForecast(c.UserContext(), horizon)
	if err != nil {
		return h.forecastError(c, err)
	}

	analysis, err := h.Analyst.Analyze(c.UserContext(), points)
	if err != nil {
		h.logger().Error("error generating AI analysis", zap.Error(err))
		return errorResponse(c, fiber.StatusBadGateway, "Failed to generate analysis from AI")
	}
	return successResponse(c, fiber.StatusOK, models.ForecastInsightsResponse{
		ReportName: "Demand Forecast Insights",
		Totals:     insights.Totals(points),
		Forecast:   points,
		AiAnalysis: *analysis,
	})
}
