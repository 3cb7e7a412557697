package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"salesforecast/database"
	"salesforecast/models"
	"salesforecast/utils"
)

const (
	defaultSalesLimit = 20
	maxSalesLimit     = 500
)

// HandleGetSales lists the most recent sales, newest first.
// GET /api/v1/sales?limit=20
func (h *Handler) HandleGetSales(c *fiber.Ctx) error {
	limit := utils.ClampLimit(c.QueryInt("limit", defaultSalesLimit), defaultSalesLimit, maxSalesLimit)

	sales, err := h.Sales.Recent(c.UserContext(), limit)
	if err != nil {
		h.logger().Error("error fetching recent sales", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch sales")
	}
	return successResponse(c, fiber.StatusOK, sales)
}

// HandleCreateSale records a single sale. Malformed records are rejected here
// so the forecasting pipeline only ever sees valid ones.
// POST /api/v1/sales
func (h *Handler) HandleCreateSale(c *fiber.Ctx) error {
	var req models.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Cannot parse request body")
	}

	if req.ItemID == nil || req.SaleDate == nil || req.Quantity == nil {
		return errorResponse(c, fiber.StatusBadRequest, "Missing required fields (item_id, sale_date, quantity)")
	}
	if *req.ItemID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "item_id must be positive")
	}
	if *req.Quantity < 0 {
		return errorResponse(c, fiber.StatusBadRequest, "quantity must not be negative")
	}
	saleDate, err := utils.ParseSaleDate(*req.SaleDate)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid sale_date format, expected YYYY-MM-DD")
	}

	sale, err := h.Sales.Create(c.UserContext(), models.SaleRecord{
		ItemID:   *req.ItemID,
		SaleDate: saleDate,
		Quantity: *req.Quantity,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateSale) {
			return errorResponse(c, fiber.StatusConflict, "A sale for this item and date already exists")
		}
		h.logger().Error("error creating sale", zap.Int64("item_id", *req.ItemID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create sale")
	}
	return successResponse(c, fiber.StatusCreated, sale)
}
