package main

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/forecasting"
	"salesforecast/metrics"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func systemApp(t *testing.T, db Pinger) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	m.ItemCompleted(forecasting.OutcomeForecast)

	app := fiber.New()
	registerSystemRoutes(app, db, reg)
	return app
}

func TestHealthz(t *testing.T) {
	resp, err := systemApp(t, stubPinger{}).Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = systemApp(t, stubPinger{err: errors.New("refused")}).Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	resp, err := systemApp(t, stubPinger{}).Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `salesforecast_forecast_items_total{outcome="forecast"} 1`)
}
