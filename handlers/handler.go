package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"salesforecast/insights"
	"salesforecast/models"
)

// SalesStore is the sales persistence used by the handlers.
type SalesStore interface {
	All(ctx context.Context) ([]models.SaleRecord, error)
	Recent(ctx context.Context, limit int) ([]models.Sale, error)
	Create(ctx context.Context, rec models.SaleRecord) (models.Sale, error)
}

// UserStore is the account persistence used by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	AssignRole(ctx context.Context, userID int64, role string) error
}

// Forecaster produces the demand forecast for a set of sales.
type Forecaster interface {
	Run(ctx context.Context, sales []models.SaleRecord, horizon int) ([]models.ForecastPoint, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	Sales      SalesStore
	Users      UserStore
	Forecaster Forecaster
	// Analyst is nil when no Gemini key is configured.
	Analyst insights.Analyst

	JWTSecret      []byte
	DefaultHorizon int
	Log            *zap.Logger
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": message})
}

func successResponse(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"status": "success", "data": data})
}
