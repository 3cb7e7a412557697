package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"salesforecast/database"
	"salesforecast/middleware"
	"salesforecast/models"
)

var testSecret = []byte("handler-secret")

type fakeSales struct {
	mu      sync.Mutex
	records []models.Sale
	err     error
}

func (f *fakeSales) All(context.Context) ([]models.SaleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.SaleRecord, 0, len(f.records))
	for _, s := range f.records {
		out = append(out, s.SaleRecord)
	}
	return out, nil
}

func (f *fakeSales) Recent(_ context.Context, limit int) ([]models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Sale{}
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.records[i])
	}
	return out, nil
}

func (f *fakeSales) Create(_ context.Context, rec models.SaleRecord) (models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.records {
		if s.ItemID == rec.ItemID && s.SaleDate.Equal(rec.SaleDate) {
			return models.Sale{}, database.ErrDuplicateSale
		}
	}
	sale := models.Sale{ID: int64(len(f.records) + 1), SaleRecord: rec}
	f.records = append(f.records, sale)
	return sale, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, username, email, hash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return nil, database.ErrDuplicateUser
		}
	}
	u := &models.User{ID: int64(len(f.users) + 1), Username: username, Email: email, PasswordHash: hash, Roles: []string{}, CreatedAt: time.Now()}
	f.users[username] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp, nil
}

func (f *fakeUsers) AssignRole(_ context.Context, userID int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			u.Roles = append(u.Roles, role)
			return nil
		}
	}
	return errors.New("no such user")
}

type fakeForecaster struct {
	points  []models.ForecastPoint
	err     error
	horizon int
	seen    int
}

func (f *fakeForecaster) Run(_ context.Context, sales []models.SaleRecord, horizon int) ([]models.ForecastPoint, error) {
	f.horizon = horizon
	f.seen = len(sales)
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

type fakeAnalyst struct {
	analysis *models.AiAnalysis
	err      error
}

func (f *fakeAnalyst) Analyze(context.Context, []models.ForecastPoint) (*models.AiAnalysis, error) {
	return f.analysis, f.err
}

// newTestApp wires h on the same paths the server uses.
func newTestApp(h *Handler) *fiber.App {
	app := fiber.New()
	jwt := middleware.JWTMiddleware(h.JWTSecret)

	api := app.Group("/api/v1")
	auth := api.Group("/auth")
	auth.Post("/register", h.HandleRegister)
	auth.Post("/login", h.HandleLogin)
	auth.Post("/logout", h.HandleLogout)
	auth.Get("/me", jwt, h.HandleMe)

	api.Get("/sales", h.HandleGetSales)
	api.Post("/sales", jwt, middleware.AdminRequired, h.HandleCreateSale)
	api.Get("/forecast", h.HandleGetForecast)
	api.Get("/forecast/insights", jwt, h.HandleGetForecastInsights)
	api.Get("/dashboard", h.HandleGetDashboard)
	return app
}

func newTestHandler() *Handler {
	return &Handler{
		Sales:          &fakeSales{},
		Users:          newFakeUsers(),
		Forecaster:     &fakeForecaster{},
		JWTSecret:      testSecret,
		DefaultHorizon: 20,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func tokenFor(t *testing.T, id int64, username string, roles ...string) string {
	t.Helper()
	token, _, err := middleware.IssueToken(testSecret, &models.User{ID: id, Username: username, Roles: roles}, time.Minute)
	require.NoError(t, err)
	return token
}
