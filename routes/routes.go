package routes

import (
	"github.com/gofiber/fiber/v2"

	"salesforecast/handlers"
	"salesforecast/middleware"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")
	requireAuth := middleware.JWTMiddleware(h.JWTSecret)

	// --- Authentication Routes ---
	auth := api.Group("/auth")
	auth.Post("/register", h.HandleRegister)
	auth.Post("/login", h.HandleLogin)
	auth.Post("/logout", h.HandleLogout)
	auth.Get("/me", requireAuth, h.HandleMe)

	// --- Sales Routes ---
	api.Get("/sales", h.HandleGetSales)
	api.Post("/sales", requireAuth, middleware.AdminRequired, h.HandleCreateSale)

	// --- Forecast Routes ---
	api.Get("/forecast", h.HandleGetForecast)
	api.Get("/forecast/insights", requireAuth, h.HandleGetForecastInsights)
	api.Get("/dashboard", h.HandleGetDashboard)
}
