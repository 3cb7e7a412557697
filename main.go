package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"salesforecast/config"
	"salesforecast/database"
	"salesforecast/forecasting"
	"salesforecast/handlers"
	"salesforecast/insights"
	"salesforecast/logger"
	"salesforecast/metrics"
	"salesforecast/routes"
)

func usage() {
	fmt.Println("usage: salesforecast [options]")
	flag.PrintDefaults()
}

var addr = flag.String("addr", "", "address to serve (overrides HTTP_ADDR)")

func main() {
	flag.Usage = usage
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectRetries, zl)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(zl)

	if err := bootstrap(ctx, cfg, pool, zl); err != nil {
		zl.Fatal("failed to prepare database", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		zl.Fatal("failed to register metrics", zap.Error(err))
	}

	trainCfg := forecasting.DefaultTrainConfig()
	trainCfg.Epochs = cfg.Forecast.Epochs
	trainCfg.Seed = cfg.Forecast.Seed
	pipeline := forecasting.NewPipeline(zl.Named("forecast"),
		forecasting.WithTrainConfig(trainCfg),
		forecasting.WithWorkers(cfg.Forecast.Workers),
		forecasting.WithItemTimeout(cfg.Forecast.ItemTimeout),
		forecasting.WithRecorder(m),
	)

	h := &handlers.Handler{
		Sales:          database.NewSaleRepository(pool),
		Users:          database.NewUserRepository(pool),
		Forecaster:     pipeline,
		JWTSecret:      []byte(cfg.JWTSecret),
		DefaultHorizon: cfg.Forecast.HorizonDays,
		Log:            zl.Named("http"),
	}
	if cfg.InsightsEnabled() {
		analyst, err := insights.NewGeminiAnalyst(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, zl.Named("insights"))
		if err != nil {
			zl.Fatal("failed to init Gemini client", zap.Error(err))
		}
		defer analyst.Close()
		h.Analyst = analyst
	} else {
		zl.Info("GEMINI_API_KEY not set, forecast insights disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "salesforecast",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	registerSystemRoutes(app, pool, reg)
	routes.SetupRoutes(app, h)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zl.Error("server shutdown failed", zap.Error(err))
		}
	}()

	// Start server
	zl.Info("serving", zap.String("addr", cfg.HTTPAddr))
	if err := app.Listen(cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

// bootstrap migrates the schema and applies the optional seeds.
func bootstrap(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, zl *zap.Logger) error {
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	if cfg.SeedSampleData {
		if _, err := database.SeedSampleSales(ctx, pool, database.NewSaleRepository(pool), zl); err != nil {
			return err
		}
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		users := database.NewUserRepository(pool)
		if err := database.EnsureAdmin(ctx, users, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, zl); err != nil {
			return err
		}
	}
	return nil
}
